// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"fmt"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/datalayout"
	"github.com/openvrs/vrs/recordformat"
)

// Image-block size-resolution conventions: the player looks for these
// field names on the most recently read DataLayout block in the same
// record to size an Image block. Audio blocks are not sized this way;
// their size comes from their own spec or, for a last block, the rest of
// the record.
const (
	imageWidthField       = "image_width"
	imageHeightField      = "image_height"
	imagePixelFormatField = "image_pixel_format"
	imageStrideField      = "image_stride"
)

// ContentBlockHandlers are the user callbacks a RecordFormatStreamPlayer
// dispatches to as it walks a record's ContentBlock chain.
type ContentBlockHandlers struct {
	OnDataLayoutRead   func(info RecordInfo, blockIndex int, layout *datalayout.DataLayout) error
	OnImageRead        func(info RecordInfo, blockIndex int, block recordformat.ContentBlock, payload []byte) error
	OnAudioRead        func(info RecordInfo, blockIndex int, block recordformat.ContentBlock, payload []byte) error
	OnCustomBlockRead  func(info RecordInfo, blockIndex int, block recordformat.ContentBlock, payload []byte) error
	OnUnsupportedBlock func(info RecordInfo, blockIndex int, block recordformat.ContentBlock, reason error)
}

type layoutKey struct {
	recordType    vrs.RecordType
	formatVersion uint32
	blockIndex    int
}

// RecordFormatStreamPlayer is the StreamPlayer implementation that
// decodes a stream's records according to its registered RecordFormat
// and DataLayout schemas, dispatching each content block in turn to the
// matching ContentBlockHandlers callback.
type RecordFormatStreamPlayer struct {
	streamID vrs.StreamId
	desc     vrs.StreamDescription
	handlers ContentBlockHandlers

	destLayouts map[layoutKey]*datalayout.DataLayout
}

// NewRecordFormatStreamPlayer returns a player for streamID, using desc
// (as returned by Reader.StreamTags) to look up the stream's registered
// RecordFormat and DataLayout schema tags.
func NewRecordFormatStreamPlayer(streamID vrs.StreamId, desc vrs.StreamDescription, handlers ContentBlockHandlers) *RecordFormatStreamPlayer {
	return &RecordFormatStreamPlayer{
		streamID:    streamID,
		desc:        desc,
		handlers:    handlers,
		destLayouts: make(map[layoutKey]*datalayout.DataLayout),
	}
}

// RegisterDataLayout installs dst as the destination DataLayout a
// DataLayoutBlock at blockIndex, for (recordType, formatVersion), maps
// onto. Without a registration, that block's bytes are still consumed
// (to keep the chain's remaining offsets correct) but OnDataLayoutRead is
// never called for it.
func (p *RecordFormatStreamPlayer) RegisterDataLayout(recordType vrs.RecordType, formatVersion uint32, blockIndex int, dst *datalayout.DataLayout) {
	p.destLayouts[layoutKey{recordType, formatVersion, blockIndex}] = dst
}

// ProcessRecordHeader always requests the payload: a RecordFormat lookup
// (and therefore a decision on whether decoding is even possible) needs
// the format-version key from the header, but consulting it further
// doesn't need the bytes, so it unconditionally returns true here and
// does format validation in ProcessRecord instead.
func (p *RecordFormatStreamPlayer) ProcessRecordHeader(info RecordInfo) bool { return true }

// ProcessRecord walks the record's ContentBlock chain, dispatching each
// block to the matching handler.
func (p *RecordFormatStreamPlayer) ProcessRecord(info RecordInfo, payload []byte) error {
	tagName := vrs.RecordFormatTagName(info.RecordType, info.FormatVersion)
	formatText, ok := p.desc.VrsTags[tagName]
	if !ok {
		if p.handlers.OnUnsupportedBlock != nil {
			p.handlers.OnUnsupportedBlock(info, 0, recordformat.ContentBlock{}, fmt.Errorf("%w: no RecordFormat registered for tag %q", vrs.ErrInvalidRecordFormat, tagName))
		}
		return nil
	}
	format, err := recordformat.Parse(formatText)
	if err != nil {
		if p.handlers.OnUnsupportedBlock != nil {
			p.handlers.OnUnsupportedBlock(info, 0, recordformat.ContentBlock{}, err)
		}
		return nil
	}

	offset := 0
	var lastLayout *datalayout.DataLayout
	for i, block := range format.Blocks {
		size, known := block.Size()
		if !known {
			size = len(payload) - offset
			if size < 0 {
				size = 0
			}
			if i != len(format.Blocks)-1 {
				if p.handlers.OnUnsupportedBlock != nil {
					p.handlers.OnUnsupportedBlock(info, i, block, fmt.Errorf("%w: block %d has unknown size but is not last", vrs.ErrInvalidRecordFormat, i))
				}
				return nil
			}
		}
		if block.Type == recordformat.ImageBlock || block.Type == recordformat.AudioBlock {
			if resolved, ok := p.resolveFromConventions(block, lastLayout); ok {
				size = resolved
				known = true
			}
		}
		if offset+size > len(payload) {
			if p.handlers.OnUnsupportedBlock != nil {
				p.handlers.OnUnsupportedBlock(info, i, block, fmt.Errorf("%w: block %d wants %d bytes, only %d remain", vrs.ErrNotEnoughData, i, size, len(payload)-offset))
			}
			return nil
		}
		blockPayload := payload[offset : offset+size]

		switch block.Type {
		case recordformat.Empty:
			// no bytes, no callback.
		case recordformat.DataLayoutBlock:
			dst := p.destLayouts[layoutKey{info.RecordType, info.FormatVersion, i}]
			schemaTag := vrs.DataLayoutTagName(info.RecordType, info.FormatVersion, i)
			schemaText, ok := p.desc.VrsTags[schemaTag]
			if !ok {
				if p.handlers.OnUnsupportedBlock != nil {
					p.handlers.OnUnsupportedBlock(info, i, block, fmt.Errorf("%w: no DataLayout schema registered for tag %q", vrs.ErrDataLayoutSchemaMismatch, schemaTag))
				}
				break
			}
			src, err := datalayout.ParseSchema([]byte(schemaText))
			if err != nil {
				if p.handlers.OnUnsupportedBlock != nil {
					p.handlers.OnUnsupportedBlock(info, i, block, err)
				}
				break
			}
			if err := datalayout.DecodeContentBlock(src, blockPayload); err != nil {
				if p.handlers.OnUnsupportedBlock != nil {
					p.handlers.OnUnsupportedBlock(info, i, block, err)
				}
				break
			}
			lastLayout = src
			if dst != nil {
				datalayout.MapLayout(dst, src)
				if p.handlers.OnDataLayoutRead != nil {
					if err := p.handlers.OnDataLayoutRead(info, i, dst); err != nil {
						return err
					}
				}
			}
		case recordformat.ImageBlock:
			if !known && block.Image.Format != recordformat.ImageVideo {
				if p.handlers.OnUnsupportedBlock != nil {
					p.handlers.OnUnsupportedBlock(info, i, block, fmt.Errorf("%w: image block %d size could not be resolved", vrs.ErrInvalidRecordFormat, i))
				}
				break
			}
			if p.handlers.OnImageRead != nil {
				if err := p.handlers.OnImageRead(info, i, block, blockPayload); err != nil {
					return err
				}
			}
		case recordformat.AudioBlock:
			if p.handlers.OnAudioRead != nil {
				if err := p.handlers.OnAudioRead(info, i, block, blockPayload); err != nil {
					return err
				}
			}
		case recordformat.CustomBlock:
			if p.handlers.OnCustomBlockRead != nil {
				if err := p.handlers.OnCustomBlockRead(info, i, block, blockPayload); err != nil {
					return err
				}
			}
		}
		offset += size
	}
	return nil
}

// resolveFromConventions looks up an Image block's width/height/pixel
// format on the most recently decoded DataLayout in the same record,
// using the documented field-name convention, and returns the computed
// byte size.
func (p *RecordFormatStreamPlayer) resolveFromConventions(block recordformat.ContentBlock, layout *datalayout.DataLayout) (int, bool) {
	if block.Type != recordformat.ImageBlock || layout == nil {
		return 0, false
	}
	widthPiece := layout.Find(imageWidthField)
	heightPiece := layout.Find(imageHeightField)
	if widthPiece == nil || heightPiece == nil {
		return 0, false
	}
	width, ok := widthPiece.AsUint32()
	if !ok {
		return 0, false
	}
	height, ok := heightPiece.AsUint32()
	if !ok {
		return 0, false
	}
	stride := uint32(0)
	if stridePiece := layout.Find(imageStrideField); stridePiece != nil {
		if s, ok := stridePiece.AsUint32(); ok {
			stride = s
		}
	}
	bpp := bytesPerPixelForSpec(block, layout)
	if stride == 0 {
		if bpp == 0 {
			return 0, false
		}
		stride = width * uint32(bpp)
	}
	return int(stride * height), true
}

// bytesPerPixelForSpec consults the block's own pixel format if set, else
// the conventionally-named image_pixel_format field.
func bytesPerPixelForSpec(block recordformat.ContentBlock, layout *datalayout.DataLayout) int {
	pixelFormat := block.Image.PixelFormat
	if pixelFormat == "" {
		if p := layout.Find(imagePixelFormatField); p != nil {
			if s, ok := p.AsString(); ok {
				pixelFormat = recordformat.PixelFormat(s)
			}
		}
	}
	bpp, _ := recordformat.BytesPerPixel(pixelFormat)
	return bpp
}
