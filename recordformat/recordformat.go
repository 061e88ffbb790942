// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package recordformat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openvrs/vrs"
)

// Format is an ordered chain of ContentBlock specs describing how a
// (record-type, format-version) pair's payload decomposes, e.g.
// "data_layout/size=48+image/raw/640x480/pixel=grey8". Exactly like the
// string it was parsed from, it must round-trip losslessly.
type Format struct {
	Blocks []ContentBlock
}

// String renders the chain back to its "+"-joined textual form.
func (f Format) String() string {
	parts := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "+")
}

// Validate enforces the "at most one Unknown-size block, and it must be
// last" invariant.
func (f Format) Validate() error {
	for i, b := range f.Blocks {
		if _, known := b.Size(); !known && i != len(f.Blocks)-1 {
			return fmt.Errorf("%w: block %d (%s) has unknown size but is not last", vrs.ErrInvalidRecordFormat, i, b.Type)
		}
	}
	return nil
}

// Parse decodes a "+"-joined RecordFormat string. Parse(f.String()) ==
// f for every Format produced by Parse. String does not render ImageSpec's
// key-frame fields, nor a DataLayoutSize/CustomSize whose Has flag is
// false, so a hand-built Format carrying those loses them.
func Parse(s string) (Format, error) {
	if s == "" {
		return Format{}, fmt.Errorf("%w: empty record format", vrs.ErrInvalidRecordFormat)
	}
	segments := strings.Split(s, "+")
	blocks := make([]ContentBlock, 0, len(segments))
	for _, seg := range segments {
		b, err := parseBlock(seg)
		if err != nil {
			return Format{}, err
		}
		blocks = append(blocks, b)
	}
	f := Format{Blocks: blocks}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

func parseBlock(seg string) (ContentBlock, error) {
	fields := strings.Split(seg, "/")
	switch fields[0] {
	case "empty":
		return ContentBlock{Type: Empty}, nil
	case "data_layout":
		b := ContentBlock{Type: DataLayoutBlock}
		for _, f := range fields[1:] {
			if n, ok := intField(f, "size="); ok {
				b.DataLayoutSize = uint32(n)
				b.DataLayoutHasSize = true
			}
		}
		return b, nil
	case "image":
		return parseImageBlock(fields[1:])
	case "audio":
		return parseAudioBlock(fields[1:])
	case "custom":
		return parseCustomBlock(fields[1:])
	default:
		return ContentBlock{}, fmt.Errorf("%w: unknown content block kind %q", vrs.ErrInvalidRecordFormat, fields[0])
	}
}

func intField(field, prefix string) (int, bool) {
	if !strings.HasPrefix(field, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(field, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseImageBlock(fields []string) (ContentBlock, error) {
	spec := ImageSpec{}
	for _, f := range fields {
		switch f {
		case "raw":
			spec.Format = ImageRaw
		case "jpg":
			spec.Format = ImageJpg
		case "png":
			spec.Format = ImagePng
		case "jxl":
			spec.Format = ImageJxl
		case "video":
			spec.Format = ImageVideo
		default:
			if w, h, ok := parseWxH(f); ok {
				spec.Width, spec.Height = w, h
				continue
			}
			if v, ok := stringField(f, "pixel="); ok {
				spec.PixelFormat = PixelFormat(v)
				continue
			}
			if n, ok := intField(f, "stride="); ok {
				spec.Stride = uint32(n)
				continue
			}
			if v, ok := stringField(f, "codec="); ok {
				spec.CodecName = v
				continue
			}
			if n, ok := intField(f, "quality="); ok {
				spec.CodecQuality = n
				continue
			}
			return ContentBlock{}, fmt.Errorf("%w: unrecognized image field %q", vrs.ErrInvalidRecordFormat, f)
		}
	}
	return ContentBlock{Type: ImageBlock, Image: spec}, nil
}

func parseAudioBlock(fields []string) (ContentBlock, error) {
	spec := AudioSpec{}
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "channels="):
			n, _ := strconv.Atoi(strings.TrimPrefix(f, "channels="))
			spec.Channels = n
		case strings.HasPrefix(f, "rate="):
			n, _ := strconv.Atoi(strings.TrimPrefix(f, "rate="))
			spec.SampleRate = n
		case strings.HasPrefix(f, "count="):
			n, _ := strconv.Atoi(strings.TrimPrefix(f, "count="))
			spec.SampleCount = n
		case strings.HasPrefix(f, "stride="):
			n, _ := strconv.Atoi(strings.TrimPrefix(f, "stride="))
			spec.Stride = n
		case f == "big_endian":
			spec.BigEndian = true
		default:
			spec.Format = PCMFormat(f)
		}
	}
	return ContentBlock{Type: AudioBlock, Audio: spec}, nil
}

func parseCustomBlock(fields []string) (ContentBlock, error) {
	if len(fields) == 0 {
		return ContentBlock{}, fmt.Errorf("%w: custom block missing name", vrs.ErrInvalidRecordFormat)
	}
	b := ContentBlock{Type: CustomBlock, CustomName: fields[0]}
	for _, f := range fields[1:] {
		if n, ok := intField(f, "size="); ok {
			b.CustomSize = uint32(n)
			b.CustomHasSize = true
		}
	}
	return b, nil
}

func stringField(field, prefix string) (string, bool) {
	if !strings.HasPrefix(field, prefix) {
		return "", false
	}
	return strings.TrimPrefix(field, prefix), true
}

func parseWxH(field string) (w, h uint32, ok bool) {
	parts := strings.SplitN(field, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(parts[0])
	b, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint32(a), uint32(b), true
}

func formatImageSpec(s ImageSpec) string {
	parts := []string{"image", s.Format.String()}
	if s.Width != 0 || s.Height != 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", s.Width, s.Height))
	}
	if s.PixelFormat != "" {
		parts = append(parts, "pixel="+string(s.PixelFormat))
	}
	if s.Stride != 0 {
		parts = append(parts, fmt.Sprintf("stride=%d", s.Stride))
	}
	if s.CodecName != "" {
		parts = append(parts, "codec="+s.CodecName)
	}
	if s.CodecQuality != 0 {
		parts = append(parts, fmt.Sprintf("quality=%d", s.CodecQuality))
	}
	return strings.Join(parts, "/")
}

func formatAudioSpec(s AudioSpec) string {
	parts := []string{"audio", string(s.Format)}
	if s.BigEndian {
		parts = append(parts, "big_endian")
	}
	if s.Channels != 0 {
		parts = append(parts, fmt.Sprintf("channels=%d", s.Channels))
	}
	if s.SampleRate != 0 {
		parts = append(parts, fmt.Sprintf("rate=%d", s.SampleRate))
	}
	if s.SampleCount != 0 {
		parts = append(parts, fmt.Sprintf("count=%d", s.SampleCount))
	}
	if s.Stride != 0 {
		parts = append(parts, fmt.Sprintf("stride=%d", s.Stride))
	}
	return strings.Join(parts, "/")
}
