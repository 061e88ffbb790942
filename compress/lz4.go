// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

func lz4CompressionLevel(preset Preset) lz4.CompressionLevel {
	if preset == Lz4Tight {
		return lz4.Level9
	}
	return lz4.Fast
}

func lz4Compress(src []byte, preset Preset) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lz4CompressionLevel(preset))); err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(src []byte, expectedLen int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	out := make([]byte, 0, expectedLen)
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
