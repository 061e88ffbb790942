// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import (
	"reflect"
	"testing"
)

func TestValueArrayStringRoundTrip(t *testing.T) {
	d := New()
	temp := AddValue[float64](d, "temperature_c")
	ids := AddArray[int32](d, "sensor_ids", 3)
	name := AddString(d, "device_name")
	tags := AddStringMap[uint32](d, "counters")
	d.Freeze()

	temp.Stage(36.6)
	ids.Stage([]int32{1, 2, 3})
	name.Stage("imu-0")
	tags.Stage(map[string]uint32{"drops": 4})
	d.CollectVariableDataAndUpdateIndex()

	if got := temp.Get(); got != 36.6 {
		t.Errorf("temperature Get() = %v, want 36.6", got)
	}
	if got := ids.Get(); !reflect.DeepEqual(got, []int32{1, 2, 3}) {
		t.Errorf("sensor_ids Get() = %v, want [1 2 3]", got)
	}
	if got := name.Get(); got != "imu-0" {
		t.Errorf("device_name Get() = %q, want imu-0", got)
	}
	if got := tags.Get(); got["drops"] != 4 {
		t.Errorf("counters Get()[drops] = %v, want 4", got["drops"])
	}
}

func TestPointAndMatrixRoundTrip(t *testing.T) {
	d := New()
	p := AddPoint3[float32](d, "position")
	m := AddMatrix2[int32](d, "rotation2d")
	d.Freeze()

	p.Stage(Point3[float32]{1, 2, 3})
	m.Stage(Matrix2[int32]{{1, 0}, {0, 1}})

	if got := p.Get(); got != (Point3[float32]{1, 2, 3}) {
		t.Errorf("position Get() = %v, want {1 2 3}", got)
	}
	if got := m.Get(); got != (Matrix2[int32]{{1, 0}, {0, 1}}) {
		t.Errorf("rotation2d Get() = %v, want identity", got)
	}
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	d := New()
	AddValue[uint32](d, "width").Piece().SetRequired(true)
	AddValue[uint32](d, "height").Piece().SetRequired(true)
	AddString(d, "codec")
	d.Freeze()

	raw, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() failed: %v", err)
	}
	decoded, err := ParseSchema(raw)
	if err != nil {
		t.Fatalf("ParseSchema() failed: %v", err)
	}
	if len(decoded.Pieces()) != len(d.Pieces()) {
		t.Fatalf("ParseSchema() piece count = %d, want %d", len(decoded.Pieces()), len(d.Pieces()))
	}
	for i, p := range d.Pieces() {
		got := decoded.Pieces()[i]
		if got.Label() != p.Label() || got.Element() != p.Element() || got.Container() != p.Container() {
			t.Errorf("piece %d = %+v, want %+v", i, got, p)
		}
	}
}

func TestCollectVariableDataAndUpdateIndex(t *testing.T) {
	d := New()
	name := AddString(d, "name")
	ids := AddVector[uint32](d, "ids")
	d.Freeze()

	name.Stage("camera-left")
	ids.Stage([]uint32{10, 20, 30})

	blob, table := d.CollectVariableDataAndUpdateIndex()
	if len(table) != 2 {
		t.Fatalf("table length = %d, want 2", len(table))
	}
	total := 0
	for _, slot := range table {
		total += slot.Length
	}
	if total != len(blob) {
		t.Errorf("sum of slot lengths = %d, want %d (len(blob))", total, len(blob))
	}
}
