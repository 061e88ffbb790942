// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"encoding/binary"

	"github.com/openvrs/vrs"
)

// index is the writer-thread-local in-memory index: one entry per record
// emitted, in emission order. Emission order already satisfies the
// global sort, so Marshal writes entries as-is rather than re-sorting.
type index struct {
	entries []vrs.IndexEntry
}

func (idx *index) append(e vrs.IndexEntry) {
	idx.entries = append(idx.entries, e)
}

// indexEntrySize is the on-disk size of one IndexRecord entry: timestamp
// (f64), offset (i64), streamId (u32), recordType (u8).
const indexEntrySize = 8 + 8 + 4 + 1

// Marshal encodes the index as the IndexRecord body: a count, then
// entries sorted by the global key.
func (idx *index) Marshal() []byte {
	buf := make([]byte, 8+len(idx.entries)*indexEntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(idx.entries)))
	off := 8
	for _, e := range idx.entries {
		vrs.PutFloat64(buf, off, e.Timestamp)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(e.Offset))
		binary.LittleEndian.PutUint32(buf[off+16:off+20], e.StreamId.Pack())
		buf[off+20] = byte(e.RecordType)
		off += indexEntrySize
	}
	return buf
}

// UnmarshalIndex decodes an IndexRecord body back into its entries,
// shared with the reader package so the two never drift on layout.
func UnmarshalIndex(buf []byte) ([]vrs.IndexEntry, error) {
	if len(buf) < 8 {
		return nil, vrs.ErrNotEnoughData
	}
	count := binary.LittleEndian.Uint64(buf[0:8])
	entries := make([]vrs.IndexEntry, 0, count)
	off := 8
	for i := uint64(0); i < count; i++ {
		if off+indexEntrySize > len(buf) {
			return nil, vrs.ErrIndexCorrupt
		}
		entries = append(entries, vrs.IndexEntry{
			Timestamp:  vrs.ReadFloat64(buf, off),
			Offset:     int64(vrs.ReadUint64(buf, off+8)),
			StreamId:   vrs.UnpackStreamId(vrs.ReadUint32(buf, off+16)),
			RecordType: vrs.RecordType(buf[off+20]),
		})
		off += indexEntrySize
	}
	return entries, nil
}
