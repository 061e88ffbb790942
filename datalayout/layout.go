// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import "fmt"

// DataLayout is an ordered, frozen collection of Pieces. A layout built
// in code (via New + Add*) is a destination layout; a layout decoded
// from disk JSON is a source layout. MapLayout produces a mapped view: a
// destination layout whose pieces read through to a source layout's
// buffers without copying bytes.
type DataLayout struct {
	pieces []*Piece
	byKey  map[layoutKey]*Piece

	frozen bool

	fixedRegion []byte
	varBlobs    [][]byte

	isMappedView bool
}

type layoutKey struct {
	label     string
	container ContainerKind
	element   ElementKind
	count     int
}

func keyOf(p *Piece) layoutKey {
	return layoutKey{label: p.label, container: p.container, element: p.element, count: p.count}
}

// New returns an empty, unfrozen DataLayout ready to have pieces added.
func New() *DataLayout {
	return &DataLayout{byKey: make(map[layoutKey]*Piece)}
}

func (d *DataLayout) add(p *Piece) *Piece {
	if d.frozen {
		panic("datalayout: cannot add a piece to a frozen DataLayout")
	}
	p.layout = d
	p.index = len(d.pieces)
	d.pieces = append(d.pieces, p)
	d.byKey[keyOf(p)] = p
	return p
}

// Pieces returns every piece in declaration order. The returned slice
// must not be modified.
func (d *DataLayout) Pieces() []*Piece { return d.pieces }

// Find returns the piece with the given label, or nil.
func (d *DataLayout) Find(label string) *Piece {
	for _, p := range d.pieces {
		if p.label == label {
			return p
		}
	}
	return nil
}

// Freeze locks the piece set and allocates the fixed-region buffer.
// Once frozen, no further pieces may be added and every piece's fixed
// offset is stable for the lifetime of the layout.
func (d *DataLayout) Freeze() *DataLayout {
	if d.frozen {
		return d
	}
	offset := 0
	for _, p := range d.pieces {
		if p.container == ContainerValue || p.container == ContainerArray {
			p.fixedOffset = offset
			offset += p.fixedSize()
		} else {
			p.varIndex = len(d.varBlobs)
			d.varBlobs = append(d.varBlobs, nil)
		}
	}
	d.fixedRegion = make([]byte, offset)
	d.frozen = true

	// Values staged via Stage before Freeze only recorded stagedFixed,
	// since fixedRegion didn't exist yet to copy into; carry them over
	// now that every piece has a stable offset.
	for _, p := range d.pieces {
		if len(p.stagedFixed) > 0 {
			copy(d.fixedRegion[p.fixedOffset:p.fixedOffset+p.fixedSize()], p.stagedFixed)
		}
	}
	return d
}

// FixedRegionSize returns the byte size of the fixed region, valid once
// the layout is frozen.
func (d *DataLayout) FixedRegionSize() int { return len(d.fixedRegion) }

// variableBlob returns the raw bytes staged or decoded for variable slot
// idx, or nil if none.
func (d *DataLayout) variableBlob(idx int) []byte {
	if idx < 0 || idx >= len(d.varBlobs) {
		return nil
	}
	return d.varBlobs[idx]
}

// CollectVariableDataAndUpdateIndex packs every Vector/String/StringMap
// piece's currently staged bytes into a single contiguous buffer and
// returns it alongside a table of (offset, length) per variable slot, in
// slot order. This is the one copy VRS ever performs for variable data:
// from many small staged buffers into one contiguous record payload.
func (d *DataLayout) CollectVariableDataAndUpdateIndex() (blob []byte, table []VariableSlot) {
	table = make([]VariableSlot, len(d.varBlobs))
	for _, p := range d.pieces {
		if p.container != ContainerVector && p.container != ContainerStringMap {
			continue
		}
		var payload []byte
		switch p.container {
		case ContainerStringMap:
			payload = encodeStringMap(p.stagedMap)
		default:
			payload = p.stagedVar
		}
		table[p.varIndex] = VariableSlot{Offset: len(blob), Length: len(payload)}
		blob = append(blob, payload...)
		d.varBlobs[p.varIndex] = payload
	}
	return blob, table
}

// VariableSlot records where one variable-region piece's bytes live
// within the record's packed variable blob.
type VariableSlot struct {
	Offset int
	Length int
}

// LoadFixedRegion installs fixed-region bytes decoded from disk, for a
// source DataLayout being read back.
func (d *DataLayout) LoadFixedRegion(b []byte) error {
	if !d.frozen {
		d.Freeze()
	}
	if len(b) < len(d.fixedRegion) {
		return fmt.Errorf("datalayout: fixed region too short: got %d bytes, want at least %d", len(b), len(d.fixedRegion))
	}
	copy(d.fixedRegion, b)
	return nil
}

// LoadVariableRegion installs variable-region bytes decoded from disk,
// slicing them out per table, for a source DataLayout being read back.
func (d *DataLayout) LoadVariableRegion(blob []byte, table []VariableSlot) error {
	for i, slot := range table {
		if slot.Offset < 0 || slot.Offset+slot.Length > len(blob) {
			return fmt.Errorf("datalayout: variable slot %d out of range: offset=%d length=%d blobLen=%d", i, slot.Offset, slot.Length, len(blob))
		}
		if i >= len(d.varBlobs) {
			d.varBlobs = append(d.varBlobs, nil)
		}
		d.varBlobs[i] = blob[slot.Offset : slot.Offset+slot.Length]
	}
	return nil
}
