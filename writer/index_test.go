// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"testing"

	"github.com/openvrs/vrs"
)

func TestIndexMarshalRoundTrip(t *testing.T) {
	var idx index
	entries := []vrs.IndexEntry{
		{Timestamp: 1.0, Offset: 28, StreamId: vrs.StreamId{TypeID: 1, InstanceID: 1}, RecordType: vrs.RecordTypeConfiguration},
		{Timestamp: 2.5, Offset: 128, StreamId: vrs.StreamId{TypeID: 1, InstanceID: 1}, RecordType: vrs.RecordTypeData},
	}
	for _, e := range entries {
		idx.append(e)
	}

	got, err := UnmarshalIndex(idx.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalIndex() failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestUnmarshalIndexTruncated(t *testing.T) {
	if _, err := UnmarshalIndex(nil); err == nil {
		t.Fatalf("UnmarshalIndex(nil) succeeded, want error")
	}
}
