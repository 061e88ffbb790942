// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import "testing"

func TestEncodeDecodeContentBlockRoundTrip(t *testing.T) {
	d := New()
	v := AddValue[uint32](d, "width")
	s := AddVector[uint8](d, "blob")
	v.Stage(640)
	s.Stage([]uint8{1, 2, 3, 4, 5})
	d.Freeze()

	encoded := d.EncodeContentBlock()

	schemaJSON, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() failed: %v", err)
	}
	src, err := ParseSchema(schemaJSON)
	if err != nil {
		t.Fatalf("ParseSchema() failed: %v", err)
	}
	if err := DecodeContentBlock(src, encoded); err != nil {
		t.Fatalf("DecodeContentBlock() failed: %v", err)
	}

	dst := New()
	dstV := AddValue[uint32](dst, "width")
	dstS := AddVector[uint8](dst, "blob")
	if !MapLayout(dst, src) {
		t.Fatalf("MapLayout() failed to match required pieces")
	}
	if got := dstV.Get(); got != 640 {
		t.Errorf("mapped width = %d, want 640", got)
	}
	if got := dstS.Get(); len(got) != 5 || got[4] != 5 {
		t.Errorf("mapped blob = %v, want [1 2 3 4 5]", got)
	}
}

func TestSourceCollectToMatchesEncodeContentBlock(t *testing.T) {
	d := New()
	v := AddValue[float32](d, "x")
	v.Stage(3.5)
	d.Freeze()

	src := NewSource(d)
	if got, want := src.Size(), len(d.EncodeContentBlock()); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	collected := src.CollectTo(nil)
	if len(collected) != src.Size() {
		t.Errorf("CollectTo() produced %d bytes, want %d", len(collected), src.Size())
	}
}
