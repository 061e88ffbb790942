// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import "testing"

func buildSourceV1() *DataLayout {
	src := New()
	w := AddValue[uint32](src, "width")
	h := AddValue[uint32](src, "height")
	src.Freeze()
	w.Stage(640)
	h.Stage(480)
	return src
}

func buildSourceV2() *DataLayout {
	src := New()
	w := AddValue[uint32](src, "width")
	h := AddValue[uint32](src, "height")
	stride := AddValue[uint32](src, "stride")
	src.Freeze()
	w.Stage(1280)
	h.Stage(720)
	stride.Stage(1280 * 4)
	return src
}

func TestMapLayoutSucceedsWhenRequiredPiecesMatch(t *testing.T) {
	dst := New()
	w := AddValue[uint32](dst, "width")
	w.Piece().SetRequired(true)
	h := AddValue[uint32](dst, "height")
	h.Piece().SetRequired(true)
	dst.Freeze()

	src := buildSourceV1()
	if ok := MapLayout(dst, src); !ok {
		t.Fatalf("MapLayout() = false, want true")
	}
	if got := w.Get(); got != 640 {
		t.Errorf("width Get() = %d, want 640", got)
	}
	if got := h.Get(); got != 480 {
		t.Errorf("height Get() = %d, want 480", got)
	}
}

func TestMapLayoutForwardCompatibleAcrossSchemaVersions(t *testing.T) {
	dst := New()
	w := AddValue[uint32](dst, "width")
	h := AddValue[uint32](dst, "height")
	stride := AddValue[uint32](dst, "stride").SetDefault(0)
	dst.Freeze()

	if ok := MapLayout(dst, buildSourceV1()); !ok {
		t.Fatalf("MapLayout() against V1 = false, want true")
	}
	if stride.Piece().IsAvailable() {
		t.Errorf("stride should be unavailable against a V1 source")
	}
	if got := stride.Get(); got != 0 {
		t.Errorf("stride Get() against V1 = %d, want default 0", got)
	}

	if ok := MapLayout(dst, buildSourceV2()); !ok {
		t.Fatalf("MapLayout() against V2 = false, want true")
	}
	if !stride.Piece().IsAvailable() {
		t.Errorf("stride should be available against a V2 source")
	}
	if got := w.Get(); got != 1280 {
		t.Errorf("width Get() against V2 = %d, want 1280", got)
	}
	if got := stride.Get(); got != 1280*4 {
		t.Errorf("stride Get() against V2 = %d, want %d", got, 1280*4)
	}
	_ = h
}

func TestMapLayoutFailsWhenRequiredPieceMissing(t *testing.T) {
	dst := New()
	AddValue[uint32](dst, "width").Piece().SetRequired(true)
	codec := AddString(dst, "codec")
	codec.Piece().SetRequired(true)
	dst.Freeze()

	if ok := MapLayout(dst, buildSourceV1()); ok {
		t.Fatalf("MapLayout() = true, want false: required piece %q has no counterpart", "codec")
	}
}
