// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "sort"

// IndexEntry is one entry of the on-disk index table and of the in-memory
// random-access index. The strict total order across entries is
// (Timestamp, StreamId, RecordType, Offset).
type IndexEntry struct {
	Timestamp  float64
	Offset     int64
	StreamId   StreamId
	RecordType RecordType
}

// Less implements the IndexEntry strict total order.
func (e IndexEntry) Less(other IndexEntry) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp < other.Timestamp
	}
	if e.StreamId != other.StreamId {
		return e.StreamId.Less(other.StreamId)
	}
	if e.RecordType != other.RecordType {
		return e.RecordType < other.RecordType
	}
	return e.Offset < other.Offset
}

// SortIndexEntries sorts entries in place according to the strict total
// order.
func SortIndexEntries(entries []IndexEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
}
