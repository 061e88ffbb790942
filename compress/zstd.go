// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package compress

import (
	"github.com/klauspost/compress/zstd"
)

func zstdEncoderLevel(preset Preset) zstd.EncoderLevel {
	switch preset {
	case ZstdFast:
		return zstd.SpeedFastest
	case ZstdLight:
		return zstd.SpeedDefault
	case ZstdMedium:
		return zstd.SpeedBetterCompression
	case ZstdTight:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func zstdCompress(src []byte, preset Preset) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdEncoderLevel(preset)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func zstdDecompress(src []byte, expectedLen int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(src, make([]byte, 0, expectedLen))
}
