// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import (
	"encoding/binary"
	"fmt"
)

// EncodeContentBlock serializes d as the DataLayout content block body:
// fixed-region bytes, then a var-region index table (count, then
// offset/length pairs), then the var-region bytes themselves.
func (d *DataLayout) EncodeContentBlock() []byte {
	if !d.frozen {
		d.Freeze()
	}
	blob, table := d.CollectVariableDataAndUpdateIndex()

	buf := make([]byte, 0, len(d.fixedRegion)+4+len(table)*8+len(blob))
	buf = append(buf, d.fixedRegion...)

	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, uint32(len(table)))
	buf = append(buf, count...)
	for _, slot := range table {
		entry := make([]byte, 8)
		binary.LittleEndian.PutUint32(entry[0:4], uint32(slot.Offset))
		binary.LittleEndian.PutUint32(entry[4:8], uint32(slot.Length))
		buf = append(buf, entry...)
	}
	return append(buf, blob...)
}

// DecodeContentBlock loads buf, previously produced by EncodeContentBlock,
// into d (a frozen layout, typically one produced by ParseSchema). d's
// FixedRegionSize determines where the fixed region ends; the var-region
// table and bytes fill out the rest.
func DecodeContentBlock(d *DataLayout, buf []byte) error {
	if !d.frozen {
		d.Freeze()
	}
	fixedSize := d.FixedRegionSize()
	if len(buf) < fixedSize+4 {
		return fmt.Errorf("datalayout: content block too short for fixed region: got %d bytes, want at least %d", len(buf), fixedSize+4)
	}
	if err := d.LoadFixedRegion(buf[:fixedSize]); err != nil {
		return err
	}
	rest := buf[fixedSize:]
	count := binary.LittleEndian.Uint32(rest[:4])
	rest = rest[4:]

	table := make([]VariableSlot, count)
	for i := range table {
		if len(rest) < 8 {
			return fmt.Errorf("datalayout: content block truncated in var-region table at entry %d", i)
		}
		table[i] = VariableSlot{
			Offset: int(binary.LittleEndian.Uint32(rest[0:4])),
			Length: int(binary.LittleEndian.Uint32(rest[4:8])),
		}
		rest = rest[8:]
	}
	return d.LoadVariableRegion(rest, table)
}

// Source is a record.DataSource (matched structurally, avoiding an
// import of the record package) wrapping one DataLayout's encoded
// content-block bytes, computed once at construction.
type Source struct {
	encoded []byte
}

// NewSource encodes d immediately and returns a Source ready to be
// collected into a record's payload.
func NewSource(d *DataLayout) *Source {
	return &Source{encoded: d.EncodeContentBlock()}
}

// CollectTo appends the source's encoded bytes to buf.
func (s *Source) CollectTo(buf []byte) []byte { return append(buf, s.encoded...) }

// Size returns the number of bytes CollectTo will append.
func (s *Source) Size() int { return len(s.encoded) }
