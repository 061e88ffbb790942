// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"encoding/binary"
	"fmt"
)

// RecordPrologSize is the size in bytes of the fixed prolog that precedes
// every Record block's content-block payload: streamId (u32), recordType
// (u8), formatVersion (u32), timestamp (f64), compression (u8),
// uncompressedSize (u64).
const RecordPrologSize = 4 + 1 + 4 + 8 + 1 + 8

// RecordProlog is the fixed-size header a RecordFileWriter writes at the
// start of every Record block's payload, ahead of the (possibly
// compressed) content-block chain. Both the writer and the reader share
// this single encode/decode so the two never drift.
type RecordProlog struct {
	StreamID         StreamId
	RecordType       RecordType
	FormatVersion    uint32
	Timestamp        float64
	Compression      uint8
	UncompressedSize uint64
}

// Marshal encodes the prolog to its on-disk little-endian form.
func (p RecordProlog) Marshal() []byte {
	buf := make([]byte, RecordPrologSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.StreamID.Pack())
	buf[4] = byte(p.RecordType)
	binary.LittleEndian.PutUint32(buf[5:9], p.FormatVersion)
	PutFloat64(buf, 9, p.Timestamp)
	buf[17] = p.Compression
	binary.LittleEndian.PutUint64(buf[18:26], p.UncompressedSize)
	return buf
}

// UnmarshalRecordProlog decodes a RecordProlog from the start of buf.
func UnmarshalRecordProlog(buf []byte) (RecordProlog, error) {
	if len(buf) < RecordPrologSize {
		return RecordProlog{}, fmt.Errorf("%w: record prolog truncated", ErrNotEnoughData)
	}
	return RecordProlog{
		StreamID:         UnpackStreamId(ReadUint32(buf, 0)),
		RecordType:       RecordType(buf[4]),
		FormatVersion:    ReadUint32(buf, 5),
		Timestamp:        ReadFloat64(buf, 9),
		Compression:      buf[17],
		UncompressedSize: ReadUint64(buf, 18),
	}, nil
}
