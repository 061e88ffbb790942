// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package record implements the in-memory Record type and the per-stream
// RecordManager that pools, orders, and hands records off to a writer.
package record

import (
	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/compress"
)

// DataSource produces a record's payload bytes on demand, deferring the
// actual serialization until the writer is ready to consume it. Each
// concrete source owns its data exclusively; it is never aliased once
// handed to a Record.
type DataSource interface {
	// CollectTo appends the source's encoded bytes to buf and returns the
	// resulting slice.
	CollectTo(buf []byte) []byte
	// Size returns the number of bytes CollectTo will append.
	Size() int
}

// RawBytes is a DataSource wrapping an already-encoded payload fragment.
type RawBytes []byte

func (r RawBytes) CollectTo(buf []byte) []byte { return append(buf, r...) }
func (r RawBytes) Size() int                   { return len(r) }

// MultiSource concatenates several DataSources into one, for records
// whose payload is built from more than one content block.
type MultiSource []DataSource

func (m MultiSource) CollectTo(buf []byte) []byte {
	for _, s := range m {
		buf = s.CollectTo(buf)
	}
	return buf
}

func (m MultiSource) Size() int {
	n := 0
	for _, s := range m {
		n += s.Size()
	}
	return n
}

// Record is one pending or in-flight unit of data for a single stream:
// an identified, timestamped, typed, owned payload, queued for writing
// or already staged for decompression on read. Ownership transfers
// exclusively from producer to writer at enqueue; a Record is never
// aliased across threads once queued.
type Record struct {
	StreamID      vrs.StreamId
	Type          vrs.RecordType
	FormatVersion uint32
	Timestamp     float64
	Compression   compress.Preset

	// arrivalSeq breaks ties between records with equal timestamps on
	// the same stream.
	arrivalSeq uint64

	// payload holds the record's encoded bytes once Collect has run;
	// nil for a record still only holding a DataSource.
	payload []byte
	source  DataSource
}

// New creates a pending record from source, not yet collected into bytes.
func New(streamID vrs.StreamId, recType vrs.RecordType, formatVersion uint32, timestamp float64, source DataSource) *Record {
	return &Record{
		StreamID:      streamID,
		Type:          recType,
		FormatVersion: formatVersion,
		Timestamp:     timestamp,
		source:        source,
	}
}

// Collect materializes the record's payload bytes from its DataSource,
// caching the result; safe to call more than once.
func (r *Record) Collect() []byte {
	if r.payload == nil && r.source != nil {
		r.payload = r.source.CollectTo(make([]byte, 0, r.source.Size()))
	}
	return r.payload
}

// PayloadSize returns the record's uncollected payload size without
// forcing a Collect, when the source can report it cheaply.
func (r *Record) PayloadSize() int {
	if r.payload != nil {
		return len(r.payload)
	}
	if r.source != nil {
		return r.source.Size()
	}
	return 0
}

// Less orders two records on the same stream: (timestamp, record-type
// priority, arrival-seq).
func (r *Record) Less(other *Record) bool {
	if r.Timestamp != other.Timestamp {
		return r.Timestamp < other.Timestamp
	}
	if r.Type.Priority() != other.Type.Priority() {
		return r.Type.Priority() < other.Type.Priority()
	}
	return r.arrivalSeq < other.arrivalSeq
}

// GlobalLess orders two records from potentially different streams:
// (timestamp, stream-id, record-type).
func GlobalLess(a, b *Record) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	if a.StreamID != b.StreamID {
		return a.StreamID.Less(b.StreamID)
	}
	return a.Type.Priority() < b.Type.Priority()
}
