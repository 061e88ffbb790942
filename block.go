// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BlockHeaderSize is the fixed size in bytes of every on-disk block header.
const BlockHeaderSize = 16

// Magic identifies a VRS block header. All multi-byte integers on disk are
// little-endian; BlockHeader describes the block header layout.
var Magic = [4]byte{'V', 'R', 'S', 0x00}

// BlockType identifies the kind of block that follows a block header.
type BlockType uint32

// Block type constants.
const (
	BlockTypeFileHeader BlockType = iota + 1
	BlockTypeDescription
	BlockTypeTags
	BlockTypeIndexRecord
	BlockTypeRecord
	BlockTypeEndOfRecords
)

func (t BlockType) String() string {
	switch t {
	case BlockTypeFileHeader:
		return "file-header"
	case BlockTypeDescription:
		return "description"
	case BlockTypeTags:
		return "tags"
	case BlockTypeIndexRecord:
		return "index-record"
	case BlockTypeRecord:
		return "record"
	case BlockTypeEndOfRecords:
		return "end-of-records"
	default:
		return fmt.Sprintf("<unrecognized block type 0x%08x>", uint32(t))
	}
}

// BlockHeader is the 16-byte header that precedes every on-disk block.
// BlockSize includes the header itself.
type BlockHeader struct {
	MagicBytes [4]byte
	Type       BlockType
	BlockSize  uint64
}

// PayloadSize returns the size of the block's payload, excluding the header.
func (h BlockHeader) PayloadSize() uint64 {
	if h.BlockSize < BlockHeaderSize {
		return 0
	}
	return h.BlockSize - BlockHeaderSize
}

// Marshal serializes the header to its 16-byte little-endian on-disk form.
func (h BlockHeader) Marshal() []byte {
	buf := make([]byte, BlockHeaderSize)
	copy(buf[0:4], h.MagicBytes[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Type))
	binary.LittleEndian.PutUint64(buf[8:16], h.BlockSize)
	return buf
}

// UnmarshalBlockHeader decodes a 16-byte block header. It never reinterprets
// buf as a native struct pointer: every field is copied out byte-wise so
// the caller may pass an unaligned slice straight out of a read buffer.
func UnmarshalBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) < BlockHeaderSize {
		return BlockHeader{}, ErrNotEnoughData
	}
	var h BlockHeader
	copy(h.MagicBytes[:], buf[0:4])
	if h.MagicBytes != Magic {
		return BlockHeader{}, fmt.Errorf("%w: bad magic", ErrInvalidFileFormat)
	}
	h.Type = BlockType(binary.LittleEndian.Uint32(buf[4:8]))
	h.BlockSize = binary.LittleEndian.Uint64(buf[8:16])
	if h.BlockSize < BlockHeaderSize {
		return BlockHeader{}, fmt.Errorf("%w: block size smaller than header", ErrInvalidFileFormat)
	}
	return h, nil
}

// ReadUint16 decodes a little-endian uint16 from buf at offset without
// assuming alignment.
func ReadUint16(buf []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(buf[offset : offset+2])
}

// ReadUint32 decodes a little-endian uint32 from buf at offset without
// assuming alignment.
func ReadUint32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}

// ReadUint64 decodes a little-endian uint64 from buf at offset without
// assuming alignment.
func ReadUint64(buf []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(buf[offset : offset+8])
}

// ReadFloat64 decodes a little-endian IEEE-754 double from buf at offset.
func ReadFloat64(buf []byte, offset int) float64 {
	bits := binary.LittleEndian.Uint64(buf[offset : offset+8])
	return math.Float64frombits(bits)
}

// PutFloat64 encodes v as a little-endian IEEE-754 double into buf at offset.
func PutFloat64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(v))
}

// FileHeader is the first block of a VRS file, at offset 0.
type FileHeader struct {
	FormatVersion     uint32
	DescriptionOffset int64
}

// FormatVersion is the current VRS container format version understood by
// this implementation. Readers supporting version V must read files
// written by any version V' <= V.
const FormatVersion = 1

// FileHeaderPayloadSize is the size in bytes of the FileHeader block's
// payload: FormatVersion (u32) then DescriptionOffset (i64).
const FileHeaderPayloadSize = 4 + 8

// DescriptionOffsetFieldOffset is the logical byte offset, from the start
// of the file, of the DescriptionOffset field within the FileHeader
// block. The FileHeader always occupies the first block of chunk 0, so a
// writer can patch this field once the Description block's final offset
// is known without reopening the file.
const DescriptionOffsetFieldOffset = BlockHeaderSize + 4

// Marshal encodes the FileHeader as a complete block: header plus
// payload.
func (h FileHeader) Marshal() []byte {
	buf := make([]byte, BlockHeaderSize+FileHeaderPayloadSize)
	hdr := BlockHeader{MagicBytes: Magic, Type: BlockTypeFileHeader, BlockSize: uint64(len(buf))}
	copy(buf, hdr.Marshal())
	binary.LittleEndian.PutUint32(buf[BlockHeaderSize:BlockHeaderSize+4], h.FormatVersion)
	binary.LittleEndian.PutUint64(buf[DescriptionOffsetFieldOffset:DescriptionOffsetFieldOffset+8], uint64(h.DescriptionOffset))
	return buf
}

// MarshalDescriptionOffset encodes just the DescriptionOffset field, for
// patching a previously-written FileHeader block in place.
func MarshalDescriptionOffset(offset int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(offset))
	return buf
}

// UnmarshalFileHeader decodes a FileHeader block's payload (the bytes
// following its BlockHeader).
func UnmarshalFileHeader(payload []byte) (FileHeader, error) {
	if len(payload) < FileHeaderPayloadSize {
		return FileHeader{}, ErrNotEnoughData
	}
	return FileHeader{
		FormatVersion:     ReadUint32(payload, 0),
		DescriptionOffset: int64(ReadUint64(payload, 4)),
	}, nil
}
