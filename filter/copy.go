// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package filter

import (
	"fmt"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/reader"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordable"
	"github.com/openvrs/vrs/writer"
)

// Mode selects how Copy moves a record's bytes from src to dst.
type Mode int

const (
	// Verbatim copies a record's already-compressed body byte-for-byte,
	// never decoding it.
	Verbatim Mode = iota
	// ReEncode decompresses each record, optionally runs it through a
	// TransformFunc, and re-compresses it for dst.
	ReEncode
)

// TransformFunc rewrites a decoded record's payload before ReEncode mode
// re-emits it. Returning a nil payload (with a nil error) drops the
// record from the copy.
type TransformFunc func(info reader.RecordInfo, payload []byte) ([]byte, error)

// CopyOptions configures one Copy call.
type CopyOptions struct {
	Mode      Mode
	Filter    *Filter
	Transform TransformFunc // ReEncode only; nil passes payloads through unchanged
}

// RegisterStandIns adds a stand-in Recordable to dst for every stream in
// src that opts.Filter keeps (ignoring time and record-type rules, since
// a stream needs a Description entry the moment any one of its records
// might be copied), carrying over its flavor and both tag maps unchanged.
// Call this before Copy, so dst.Finalize can describe every stream Copy
// actually writes records for.
func RegisterStandIns(dst *writer.Writer, src *reader.Reader, f *Filter) error {
	for _, id := range src.StreamIds() {
		if f != nil && !f.IncludesStream(id) {
			continue
		}
		desc, ok := src.StreamTags(id)
		if !ok {
			continue
		}
		standIn := recordable.New(id, desc.Flavor)
		for k, v := range desc.UserTags {
			standIn.SetUserTag(k, v)
		}
		for k, v := range desc.VrsTags {
			standIn.SetVRSTag(k, v)
		}
		if err := dst.AddStream(standIn, true, true); err != nil {
			return err
		}
	}
	return nil
}

// Copy reads every record in src's global order that passes opts.Filter
// and writes it to dst (already opened via writer.Writer.Open, with
// RegisterStandIns already called), in verbatim or re-encoding mode per
// opts.Mode. It returns the number of records copied.
func Copy(src *reader.Reader, dst *writer.Writer, opts CopyOptions) (int, error) {
	if opts.Mode == Verbatim && opts.Transform != nil {
		return 0, fmt.Errorf("%w: Transform requires ReEncode mode", vrs.ErrInvalidParameter)
	}
	if opts.Filter != nil {
		if err := opts.Filter.Range.Validate(); err != nil {
			return 0, err
		}
	}

	fileStart, fileEnd := timeRange(src)
	copied := 0
	for _, entry := range src.GlobalEntries() {
		info := reader.RecordInfo{StreamID: entry.StreamId, RecordType: entry.RecordType, Timestamp: entry.Timestamp}
		if !opts.Filter.Matches(info, fileStart, fileEnd) {
			continue
		}

		switch opts.Mode {
		case Verbatim:
			prolog, body, err := src.ReadRawRecord(entry)
			if err != nil {
				return copied, err
			}
			if err := dst.WriteVerbatimRecord(prolog, body); err != nil {
				return copied, err
			}
		default:
			prolog, payload, err := src.ReadDecodedRecord(entry)
			if err != nil {
				return copied, err
			}
			if opts.Transform != nil {
				payload, err = opts.Transform(info, payload)
				if err != nil {
					return copied, err
				}
				if payload == nil {
					continue
				}
			}
			rec := record.New(prolog.StreamID, prolog.RecordType, prolog.FormatVersion, prolog.Timestamp, record.RawBytes(payload))
			if err := dst.WriteRecord(rec); err != nil {
				return copied, err
			}
		}
		copied++
	}
	return copied, nil
}

// timeRange returns src's earliest and latest record timestamps, the
// anchors a Filter's relative TimeBounds resolve against.
func timeRange(src *reader.Reader) (start, end float64) {
	entries := src.GlobalEntries()
	if len(entries) == 0 {
		return 0, 0
	}
	start, end = entries[0].Timestamp, entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp < start {
			start = e.Timestamp
		}
		if e.Timestamp > end {
			end = e.Timestamp
		}
	}
	return start, end
}
