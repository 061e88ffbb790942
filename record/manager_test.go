// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package record

import (
	"testing"

	"github.com/openvrs/vrs"
)

func streamID(t *testing.T) vrs.StreamId {
	t.Helper()
	return vrs.StreamId{TypeID: 1, InstanceID: 1}
}

func TestCreateRecordOrdersByTimestampThenPriority(t *testing.T) {
	m := NewManager()
	sid := streamID(t)

	m.CreateRecord(sid, vrs.RecordTypeData, 1, 3.0, RawBytes("c"))
	m.CreateRecord(sid, vrs.RecordTypeData, 1, 1.0, RawBytes("a"))
	m.CreateRecord(sid, vrs.RecordTypeConfiguration, 1, 1.0, RawBytes("b"))

	out := m.CollectAll(nil)
	if len(out) != 3 {
		t.Fatalf("CollectAll() returned %d records, want 3", len(out))
	}
	want := []string{"b", "a", "c"}
	for i, r := range out {
		if got := string(r.Collect()); got != want[i] {
			t.Errorf("record %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestCollectOldRecordsRespectsCutoff(t *testing.T) {
	m := NewManager()
	sid := streamID(t)
	m.CreateRecord(sid, vrs.RecordTypeData, 1, 1.0, RawBytes("old"))
	m.CreateRecord(sid, vrs.RecordTypeData, 1, 5.0, RawBytes("new"))

	out := m.CollectOldRecords(2.0, nil)
	if len(out) != 1 || string(out[0].Collect()) != "old" {
		t.Fatalf("CollectOldRecords(2.0) = %v, want just the old record", out)
	}
	if got := m.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
}

func TestArrivalSequenceBreaksTimestampTies(t *testing.T) {
	m := NewManager()
	sid := streamID(t)
	first := m.CreateRecord(sid, vrs.RecordTypeData, 1, 1.0, RawBytes("first"))
	second := m.CreateRecord(sid, vrs.RecordTypeData, 1, 1.0, RawBytes("second"))

	if !first.Less(second) {
		t.Errorf("record created first should sort before record created second at equal timestamps")
	}
}

func TestReleaseRecyclesFromPool(t *testing.T) {
	m := NewManager()
	sid := streamID(t)
	r := m.CreateRecord(sid, vrs.RecordTypeData, 1, 1.0, RawBytes("x"))
	m.CollectAll(nil)
	m.Release(r)

	r2 := m.CreateRecord(sid, vrs.RecordTypeData, 1, 2.0, RawBytes("y"))
	if r2 != r {
		t.Errorf("CreateRecord() did not reuse the released record from the pool")
	}
}
