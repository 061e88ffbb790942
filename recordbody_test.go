// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "testing"

func TestRecordPrologRoundTrip(t *testing.T) {
	p := RecordProlog{
		StreamID:         StreamId{TypeID: 3, InstanceID: 1},
		RecordType:       RecordTypeData,
		FormatVersion:    2,
		Timestamp:        12.5,
		Compression:      1,
		UncompressedSize: 4096,
	}
	got, err := UnmarshalRecordProlog(p.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalRecordProlog() failed: %v", err)
	}
	if got != p {
		t.Errorf("UnmarshalRecordProlog() = %+v, want %+v", got, p)
	}
}

func TestRecordPrologTruncated(t *testing.T) {
	if _, err := UnmarshalRecordProlog(make([]byte, RecordPrologSize-1)); err == nil {
		t.Fatalf("UnmarshalRecordProlog() with short buffer succeeded, want error")
	}
}
