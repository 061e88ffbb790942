// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/openvrs/vrs"
)

var presets = []Preset{None, Lz4Fast, Lz4Tight, ZstdFast, ZstdLight, ZstdMedium, ZstdTight}

func TestCompressDecompressRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	payloads := [][]byte{
		{},
		[]byte("hello, vrs"),
		bytes.Repeat([]byte{0xAB}, 64*1024),
	}
	randomPayload := make([]byte, 32*1024)
	r.Read(randomPayload)
	payloads = append(payloads, randomPayload)

	for _, preset := range presets {
		for _, payload := range payloads {
			t.Run(preset.String(), func(t *testing.T) {
				frame, err := Compress(payload, preset)
				if err != nil {
					t.Fatalf("Compress() failed: %v", err)
				}
				decoded, consumed, err := Decompress(frame)
				if err != nil {
					t.Fatalf("Decompress() failed: %v", err)
				}
				if consumed != len(frame) {
					t.Errorf("Decompress() consumed %d, want %d", consumed, len(frame))
				}
				if !bytes.Equal(decoded, payload) {
					t.Errorf("Decompress(Compress(S)) != S for preset %s", preset)
				}
			})
		}
	}
}

func TestDecompressTruncatedFrameIsNotEnoughData(t *testing.T) {
	frame, err := Compress(bytes.Repeat([]byte("abcdefgh"), 4096), ZstdFast)
	if err != nil {
		t.Fatalf("Compress() failed: %v", err)
	}
	for _, k := range []int{1, 5, 25, 100} {
		if k >= len(frame) {
			continue
		}
		truncated := frame[:len(frame)-k]
		if _, _, err := Decompress(truncated); err != vrs.ErrNotEnoughData {
			t.Errorf("Decompress(truncated by %d) = %v, want ErrNotEnoughData", k, err)
		}
	}
}

func TestConcatenatedFrames(t *testing.T) {
	a, _ := Compress([]byte("frame one"), Lz4Fast)
	b, _ := Compress([]byte("frame two"), ZstdMedium)
	joined := append(append([]byte{}, a...), b...)
	out, err := DecompressAll(joined)
	if err != nil {
		t.Fatalf("DecompressAll() failed: %v", err)
	}
	if string(out) != "frame oneframe two" {
		t.Errorf("DecompressAll() = %q, want %q", out, "frame oneframe two")
	}
}
