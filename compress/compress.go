// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package compress implements the frame-oriented Lz4/Zstd wrapper used to
// compress record payloads. Each frame is preceded by a small header
// carrying the uncompressed and compressed lengths so frames can be
// concatenated and decoded independently; a truncated trailing frame
// yields vrs.ErrNotEnoughData rather than corrupting output.
package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/openvrs/vrs"
)

// Preset selects a compression algorithm and speed/size trade-off. Preset
// affects only performance, never the decoded bytes: on read, the codec is
// auto-detected from the frame header.
type Preset uint8

const (
	// None stores the payload uncompressed, still framed.
	None Preset = iota
	Lz4Fast
	Lz4Tight
	ZstdFast
	ZstdLight
	ZstdMedium
	ZstdTight
)

func (p Preset) String() string {
	switch p {
	case None:
		return "none"
	case Lz4Fast:
		return "lz4-fast"
	case Lz4Tight:
		return "lz4-tight"
	case ZstdFast:
		return "zstd-fast"
	case ZstdLight:
		return "zstd-light"
	case ZstdMedium:
		return "zstd-medium"
	case ZstdTight:
		return "zstd-tight"
	default:
		return fmt.Sprintf("<unrecognized preset %d>", uint8(p))
	}
}

// codec identifies which algorithm produced a frame, persisted in the
// frame header so the decoder doesn't need external context.
type codec uint8

const (
	codecNone codec = iota
	codecLz4
	codecZstd
)

func (p Preset) codec() codec {
	switch p {
	case Lz4Fast, Lz4Tight:
		return codecLz4
	case ZstdFast, ZstdLight, ZstdMedium, ZstdTight:
		return codecZstd
	default:
		return codecNone
	}
}

// frameHeaderSize is the size in bytes of the per-frame header: 1 byte
// codec id, 8 bytes uncompressed length, 8 bytes compressed length, all
// little-endian.
const frameHeaderSize = 17

// Compress encodes src as a single self-describing frame using preset.
func Compress(src []byte, preset Preset) ([]byte, error) {
	c := preset.codec()
	var payload []byte
	var err error
	switch c {
	case codecNone:
		payload = src
	case codecLz4:
		payload, err = lz4Compress(src, preset)
	case codecZstd:
		payload, err = zstdCompress(src, preset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vrs.ErrCompressionFailure, err)
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	frame[0] = byte(c)
	binary.LittleEndian.PutUint64(frame[1:9], uint64(len(src)))
	binary.LittleEndian.PutUint64(frame[9:17], uint64(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	return frame, nil
}

// Decompress decodes a single frame previously produced by Compress,
// returning the number of frame bytes consumed from src alongside the
// decoded payload, so callers can walk a concatenation of frames.
func Decompress(src []byte) (decoded []byte, consumed int, err error) {
	if len(src) < frameHeaderSize {
		return nil, 0, vrs.ErrNotEnoughData
	}
	c := codec(src[0])
	uncompressedLen := binary.LittleEndian.Uint64(src[1:9])
	compressedLen := binary.LittleEndian.Uint64(src[9:17])
	total := frameHeaderSize + compressedLen
	if uint64(len(src)) < total {
		return nil, 0, vrs.ErrNotEnoughData
	}
	payload := src[frameHeaderSize:total]

	switch c {
	case codecNone:
		decoded = make([]byte, len(payload))
		copy(decoded, payload)
	case codecLz4:
		decoded, err = lz4Decompress(payload, int(uncompressedLen))
	case codecZstd:
		decoded, err = zstdDecompress(payload, int(uncompressedLen))
	default:
		err = fmt.Errorf("unrecognized codec id %d", c)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", vrs.ErrDecompressionFailure, err)
	}
	if uint64(len(decoded)) != uncompressedLen {
		return nil, 0, fmt.Errorf("%w: decoded length mismatch", vrs.ErrDecompressionFailure)
	}
	return decoded, int(total), nil
}

// DecompressAll decodes every concatenated frame in src and returns their
// payloads joined back together in order.
func DecompressAll(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	for len(src) > 0 {
		decoded, consumed, err := Decompress(src)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
		src = src[consumed:]
	}
	return out, nil
}
