// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package recordformat

import "testing"

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []string{
		"data_layout/size=48+image/raw/640x480/pixel=grey8",
		"data_layout",
		"audio/int16/channels=2/rate=48000/count=1024",
		"custom/imu_samples/size=64",
	}
	for _, s := range cases {
		f, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if got := f.String(); got != s {
			t.Errorf("Parse(%q).String() = %q, want %q", s, got, s)
		}
		again, err := Parse(f.String())
		if err != nil {
			t.Fatalf("Parse(Format(%q)) failed: %v", s, err)
		}
		if again.String() != f.String() {
			t.Errorf("Parse(Format(%q)) not stable: %q != %q", s, again.String(), f.String())
		}
	}
}

func TestUnknownSizeMustBeLast(t *testing.T) {
	_, err := Parse("image/video+data_layout/size=48")
	if err == nil {
		t.Fatalf("Parse() with unknown-size non-last block succeeded, want error")
	}
}

func TestUnknownSizeAllowedWhenLast(t *testing.T) {
	f, err := Parse("data_layout/size=48+image/video")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, known := f.Blocks[len(f.Blocks)-1].Size(); known {
		t.Errorf("last image/video block reported a known size")
	}
}

func TestImageRawSizeComputation(t *testing.T) {
	f, err := Parse("image/raw/10x20/pixel=bgr8")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	size, known := f.Blocks[0].Size()
	if !known {
		t.Fatalf("raw image block size should be known")
	}
	if want := uint32(10 * 20 * 3); size != want {
		t.Errorf("Size() = %d, want %d", size, want)
	}
}
