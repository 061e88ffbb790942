// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package recordformat implements the ContentBlock specs and the
// "+"-joined RecordFormat grammar that describes how a record's payload
// decomposes into typed segments.
package recordformat

import "fmt"

// ContentType identifies the kind of one block in a record's payload.
type ContentType int

const (
	Empty ContentType = iota
	DataLayoutBlock
	ImageBlock
	AudioBlock
	CustomBlock
)

func (t ContentType) String() string {
	switch t {
	case Empty:
		return "empty"
	case DataLayoutBlock:
		return "data_layout"
	case ImageBlock:
		return "image"
	case AudioBlock:
		return "audio"
	case CustomBlock:
		return "custom"
	default:
		return "unknown"
	}
}

// ImageFormat names the on-disk encoding of an image block.
type ImageFormat int

const (
	ImageRaw ImageFormat = iota
	ImageJpg
	ImagePng
	ImageJxl
	ImageVideo
)

func (f ImageFormat) String() string {
	switch f {
	case ImageRaw:
		return "raw"
	case ImageJpg:
		return "jpg"
	case ImagePng:
		return "png"
	case ImageJxl:
		return "jxl"
	case ImageVideo:
		return "video"
	default:
		return "unknown"
	}
}

// PixelFormat names a raw image's per-pixel encoding.
type PixelFormat string

const (
	PixelGrey8    PixelFormat = "grey8"
	PixelGrey16   PixelFormat = "grey16"
	PixelRGB8     PixelFormat = "rgb8"
	PixelBGR8     PixelFormat = "bgr8"
	PixelRGBA8    PixelFormat = "rgba8"
	PixelBGRA8    PixelFormat = "bgra8"
	PixelDepth32F PixelFormat = "depth32f"
	PixelYUVI420  PixelFormat = "yuv_i420_split"
)

// bytesPerPixel gives the packed byte size of one pixel for the raw
// single-plane pixel formats; planar/subsampled formats are not sized
// this way and return 0 (handled specially by ImageSpec.size).
var bytesPerPixel = map[PixelFormat]int{
	PixelGrey8:    1,
	PixelGrey16:   2,
	PixelRGB8:     3,
	PixelBGR8:     3,
	PixelRGBA8:    4,
	PixelBGRA8:    4,
	PixelDepth32F: 4,
}

// BytesPerPixel returns the packed byte size of one pixel for a raw,
// single-plane pixel format, and whether f has a known fixed size at all
// (planar/subsampled formats like yuv_i420_split do not). Exported so a
// reader can resolve an image block's size from a same-record
// DataLayout's conventionally-named pixel-format field, not just from a
// RecordFormat's own spec.
func BytesPerPixel(f PixelFormat) (int, bool) {
	bpp, ok := bytesPerPixel[f]
	return bpp, ok
}

// ImageSpec describes an Image content block.
type ImageSpec struct {
	Format      ImageFormat
	PixelFormat PixelFormat
	Width       uint32
	Height      uint32
	Stride      uint32 // 0 means width*bytesPerPixel, tightly packed
	CodecName   string
	CodecQuality int
	KeyFrameTimestamp float64
	KeyFrameIndex     int
	HasKeyFrame       bool
}

// size returns the block's byte size and whether it is known statically
// from the spec alone (raw, non-subsampled formats only).
func (s ImageSpec) size() (uint32, bool) {
	if s.Format != ImageRaw {
		return 0, false
	}
	bpp, ok := bytesPerPixel[s.PixelFormat]
	if !ok {
		return 0, false
	}
	stride := s.Stride
	if stride == 0 {
		stride = s.Width * uint32(bpp)
	}
	return stride * s.Height, true
}

// PCMFormat names an audio block's sample encoding.
type PCMFormat string

const (
	PCMSignedInt8    PCMFormat = "int8"
	PCMSignedInt16   PCMFormat = "int16"
	PCMSignedInt24   PCMFormat = "int24"
	PCMSignedInt32   PCMFormat = "int32"
	PCMUnsignedInt8  PCMFormat = "uint8"
	PCMFloat32       PCMFormat = "float32"
	PCMFloat64       PCMFormat = "float64"
	PCMMuLaw         PCMFormat = "mulaw"
	PCMALaw          PCMFormat = "alaw"
)

var pcmBytesPerSample = map[PCMFormat]int{
	PCMSignedInt8: 1, PCMUnsignedInt8: 1, PCMMuLaw: 1, PCMALaw: 1,
	PCMSignedInt16: 2,
	PCMSignedInt24: 3,
	PCMSignedInt32: 4, PCMFloat32: 4,
	PCMFloat64: 8,
}

// AudioSpec describes an Audio content block.
type AudioSpec struct {
	Format     PCMFormat
	BigEndian  bool
	Channels   int
	SampleRate int
	// SampleCount and Stride are optional; when SampleCount is zero the
	// block's size is Unknown unless it is the record's last block.
	SampleCount int
	Stride      int
}

func (s AudioSpec) size() (uint32, bool) {
	if s.SampleCount <= 0 {
		return 0, false
	}
	bps, ok := pcmBytesPerSample[s.Format]
	if !ok {
		return 0, false
	}
	stride := s.Stride
	if stride == 0 {
		stride = bps * s.Channels
	}
	return uint32(stride * s.SampleCount), true
}

// ContentBlock is one spec within a RecordFormat's block chain.
type ContentBlock struct {
	Type ContentType

	// DataLayoutSize is the explicit fixed+variable byte size declared for
	// a DataLayoutBlock, or 0 if the spec leaves it implicit (computed at
	// write time from the actual DataLayout instance).
	DataLayoutSize uint32
	DataLayoutHasSize bool

	Image ImageSpec
	Audio AudioSpec

	// CustomName identifies a Custom block's format for user dispatch.
	CustomName string
	CustomSize uint32
	CustomHasSize bool
}

// Size returns the block's statically known byte size, and whether it is
// known at all (Unknown sizes must belong to the chain's last block).
func (b ContentBlock) Size() (uint32, bool) {
	switch b.Type {
	case Empty:
		return 0, true
	case DataLayoutBlock:
		if b.DataLayoutHasSize {
			return b.DataLayoutSize, true
		}
		return 0, false
	case ImageBlock:
		return b.Image.size()
	case AudioBlock:
		return b.Audio.size()
	case CustomBlock:
		if b.CustomHasSize {
			return b.CustomSize, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func (b ContentBlock) String() string {
	switch b.Type {
	case Empty:
		return "empty"
	case DataLayoutBlock:
		if b.DataLayoutHasSize {
			return fmt.Sprintf("data_layout/size=%d", b.DataLayoutSize)
		}
		return "data_layout"
	case ImageBlock:
		return formatImageSpec(b.Image)
	case AudioBlock:
		return formatAudioSpec(b.Audio)
	case CustomBlock:
		s := "custom/" + b.CustomName
		if b.CustomHasSize {
			s += fmt.Sprintf("/size=%d", b.CustomSize)
		}
		return s
	default:
		return "unknown"
	}
}
