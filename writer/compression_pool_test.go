// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"bytes"
	"testing"

	"github.com/openvrs/vrs/compress"
)

func TestCompressionPoolInlineRoundTrip(t *testing.T) {
	pool := newCompressionPool(0)
	payloads := [][]byte{[]byte("hello"), []byte("world"), bytes.Repeat([]byte{0x7}, 4096)}
	presets := []compress.Preset{compress.None, compress.Lz4Fast, compress.ZstdFast}

	frames, err := pool.CompressAll(payloads, presets)
	if err != nil {
		t.Fatalf("CompressAll() failed: %v", err)
	}
	for i, frame := range frames {
		decoded, err := compress.DecompressAll(frame)
		if err != nil {
			t.Fatalf("DecompressAll(%d) failed: %v", i, err)
		}
		if !bytes.Equal(decoded, payloads[i]) {
			t.Errorf("round trip %d mismatch", i)
		}
	}
}

func TestCompressionPoolBoundedConcurrentRoundTrip(t *testing.T) {
	pool := newCompressionPool(2)
	n := 20
	payloads := make([][]byte, n)
	presets := make([]compress.Preset, n)
	for i := range payloads {
		payloads[i] = bytes.Repeat([]byte{byte(i)}, 1024)
		presets[i] = compress.ZstdFast
	}

	frames, err := pool.CompressAll(payloads, presets)
	if err != nil {
		t.Fatalf("CompressAll() failed: %v", err)
	}
	for i, frame := range frames {
		decoded, err := compress.DecompressAll(frame)
		if err != nil {
			t.Fatalf("DecompressAll(%d) failed: %v", i, err)
		}
		if !bytes.Equal(decoded, payloads[i]) {
			t.Errorf("result %d out of order or corrupted", i)
		}
	}
}
