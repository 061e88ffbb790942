// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package filter

import (
	"testing"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/reader"
)

func info(streamID vrs.StreamId, recordType vrs.RecordType, ts float64) reader.RecordInfo {
	return reader.RecordInfo{StreamID: streamID, RecordType: recordType, Timestamp: ts}
}

func TestFilterStreamInclusionExclusion(t *testing.T) {
	camera := vrs.StreamId{TypeID: 100, InstanceID: 1}
	gps := vrs.StreamId{TypeID: 200, InstanceID: 1}

	f := New().IncludeType(100)
	if !f.IncludesStream(camera) {
		t.Errorf("IncludesStream(camera) = false, want true (type 100 included)")
	}
	if f.IncludesStream(gps) {
		t.Errorf("IncludesStream(gps) = true, want false (only type 100 included)")
	}

	f2 := New().IncludeType(100).ExcludeStream(camera)
	if f2.IncludesStream(camera) {
		t.Errorf("explicit ExcludeStream did not override IncludeType")
	}

	empty := New()
	if !empty.IncludesStream(camera) || !empty.IncludesStream(gps) {
		t.Errorf("empty filter must include every stream")
	}
}

func TestFilterRecordType(t *testing.T) {
	streamID := vrs.StreamId{TypeID: 1, InstanceID: 1}
	f := New().IncludeRecordType(vrs.RecordTypeData)
	if !f.Matches(info(streamID, vrs.RecordTypeData, 1.0), 0, 10) {
		t.Errorf("Matches() = false for an included record type")
	}
	if f.Matches(info(streamID, vrs.RecordTypeConfiguration, 1.0), 0, 10) {
		t.Errorf("Matches() = true for a record type not in the allowlist")
	}
}

func TestTimeRangeAbsolute(t *testing.T) {
	streamID := vrs.StreamId{TypeID: 1, InstanceID: 1}
	f := New()
	f.Range = TimeRange{
		After:  &TimeBound{Anchor: Absolute, Offset: 2.0},
		Before: &TimeBound{Anchor: Absolute, Offset: 5.0},
	}
	cases := []struct {
		ts   float64
		want bool
	}{
		{1.0, false},
		{2.0, true},
		{3.5, true},
		{5.0, true},
		{6.0, false},
	}
	for _, c := range cases {
		if got := f.Matches(info(streamID, vrs.RecordTypeData, c.ts), 0, 10); got != c.want {
			t.Errorf("Matches() at t=%g = %v, want %v", c.ts, got, c.want)
		}
	}
}

func TestTimeRangeRelative(t *testing.T) {
	streamID := vrs.StreamId{TypeID: 1, InstanceID: 1}
	f := New()
	f.Range = TimeRange{
		After:  &TimeBound{Anchor: RelativeToStart, Offset: 1.0}, // file starts at 10 -> after 11
		Before: &TimeBound{Anchor: RelativeToEnd, Offset: -1.0},  // file ends at 20 -> before 19
	}
	fileStart, fileEnd := 10.0, 20.0
	if f.Matches(info(streamID, vrs.RecordTypeData, 10.5), fileStart, fileEnd) {
		t.Errorf("Matches() = true before the relative After bound")
	}
	if !f.Matches(info(streamID, vrs.RecordTypeData, 15.0), fileStart, fileEnd) {
		t.Errorf("Matches() = false inside the relative range")
	}
	if f.Matches(info(streamID, vrs.RecordTypeData, 19.5), fileStart, fileEnd) {
		t.Errorf("Matches() = true past the relative Before bound")
	}
}

func TestTimeRangeAround(t *testing.T) {
	streamID := vrs.StreamId{TypeID: 1, InstanceID: 1}
	f := New()
	f.Range = TimeRange{
		AroundCenter: &TimeBound{Anchor: Absolute, Offset: 10.0},
		AroundWindow: 2.0,
	}
	if !f.Matches(info(streamID, vrs.RecordTypeData, 8.5), 0, 100) {
		t.Errorf("Matches() = false inside the around window")
	}
	if f.Matches(info(streamID, vrs.RecordTypeData, 7.0), 0, 100) {
		t.Errorf("Matches() = true outside the around window")
	}
}

func TestTimeRangeValidateRejectsAroundWithRelativeBound(t *testing.T) {
	r := TimeRange{
		AroundCenter: &TimeBound{Anchor: Absolute, Offset: 10.0},
		AroundWindow: 1.0,
		After:        &TimeBound{Anchor: RelativeToStart, Offset: 1.0},
	}
	if err := r.Validate(); err == nil {
		t.Errorf("Validate() succeeded for --around combined with a relative --after, want error")
	}

	r2 := TimeRange{
		AroundCenter: &TimeBound{Anchor: Absolute, Offset: 10.0},
		AroundWindow: 1.0,
		After:        &TimeBound{Anchor: Absolute, Offset: 1.0},
	}
	if err := r2.Validate(); err != nil {
		t.Errorf("Validate() failed for --around with an absolute --after: %v", err)
	}
}

func TestNilFilterMatchesEverything(t *testing.T) {
	var f *Filter
	streamID := vrs.StreamId{TypeID: 1, InstanceID: 1}
	if !f.Matches(info(streamID, vrs.RecordTypeData, 100.0), 0, 0) {
		t.Errorf("nil Filter rejected a record, want unconditional match")
	}
}
