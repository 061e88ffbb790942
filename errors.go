// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "errors"

// Error kinds surfaced by the VRS core. Each is a distinct sentinel so
// callers can test with errors.Is; components wrap these with fmt.Errorf
// ("%w") to attach context.
var (
	// ErrInvalidParameter is returned when a caller-supplied argument is
	// out of range or otherwise nonsensical.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRequest is returned when an operation is requested in a
	// context where it does not make sense (e.g. writing to a reader).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidState is returned when an operation is attempted on an
	// object that is not in the right lifecycle state for it.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotOpen is returned when an operation requires an open file or
	// chunk and none is open.
	ErrNotOpen = errors.New("file not open")

	// ErrNotEnoughData is returned when a read ends before the requested
	// number of bytes could be produced.
	ErrNotEnoughData = errors.New("not enough data")

	// ErrPartialWrite is returned when fewer bytes were written than
	// requested.
	ErrPartialWrite = errors.New("partial write")

	// ErrTruncatedFrame names a compressed frame that ends before its
	// header-declared length. The compress package reports that case as
	// ErrNotEnoughData; nothing in this module returns ErrTruncatedFrame.
	ErrTruncatedFrame = errors.New("truncated compression frame")

	// ErrInvalidFileFormat is returned when a file does not begin with
	// the expected block header / magic.
	ErrInvalidFileFormat = errors.New("invalid file format")

	// ErrInvalidRecordFormat is returned when a RecordFormat's content
	// block chain is malformed (e.g. more than one block of unknown
	// size, or an unknown-size block that isn't last).
	ErrInvalidRecordFormat = errors.New("invalid record format")

	// ErrIndexCorrupt is returned when an on-disk index fails to parse
	// or its entries are not validly ordered.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrIndexMissing is returned when no IndexRecord block could be
	// found at the head or the tail of the file.
	ErrIndexMissing = errors.New("index missing")

	// ErrCompressionFailure is returned when a compressor fails to
	// encode a payload.
	ErrCompressionFailure = errors.New("compression failure")

	// ErrDecompressionFailure is returned when a decompressor fails to
	// decode a frame that isn't simply truncated.
	ErrDecompressionFailure = errors.New("decompression failure")

	// ErrDataLayoutSchemaMismatch is returned when a DataLayout JSON
	// schema cannot be parsed or a piece definition is self-contradictory.
	ErrDataLayoutSchemaMismatch = errors.New("data layout schema mismatch")

	// ErrRequiredPieceUnavailable names a DataLayout mapping in which a
	// piece marked required could not be matched. datalayout.MapLayout
	// reports that case by returning false; nothing in this module returns
	// ErrRequiredPieceUnavailable.
	ErrRequiredPieceUnavailable = errors.New("required data piece unavailable")

	// ErrStreamNotFound is returned when an operation references a
	// StreamId that does not exist in the file.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrUnsupportedFeature is returned when a caller asks for behavior
	// this implementation does not provide (e.g. merging unrelated
	// files in MultiRecordFileReader).
	ErrUnsupportedFeature = errors.New("unsupported feature")
)
