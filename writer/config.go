// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package writer implements RecordFileWriter: batch, async, and
// split-chunk ingestion of Recordable streams into a single on-disk VRS
// container, with background ordering, compression, and index emission.
package writer

import (
	"time"

	"github.com/openvrs/vrs/chunkio"
	"github.com/openvrs/vrs/compress"
	"github.com/openvrs/vrs/internal/vlog"
)

// Default configuration values.
const (
	DefaultMaxChunkSizeMB      = 0 // 0 disables chunk rotation
	DefaultCompressionPoolSize = 0 // 0 compresses inline on the writer goroutine
	DefaultWriteQueueDepth     = 4
)

// Options configures a Writer's chunking, compression, and background
// behavior. Zero-valued fields are filled with their documented defaults
// by Normalize, mirroring chunkio.Config's own defaulting convention.
type Options struct {
	// MaxChunkSizeMB bounds each chunk's size; 0 means a single
	// never-rotated chunk.
	MaxChunkSizeMB int64
	// CompressionPoolSize is the number of goroutines compressing record
	// payloads concurrently; 0 compresses on the caller's goroutine.
	CompressionPoolSize int
	// Preset is the compression preset applied to every record this
	// Writer emits; there is no per-stream preset.
	Preset compress.Preset
	// WriteQueueDepth is the buffer size of the channel carrying
	// WriteRecordsAsync requests to the writer goroutine. WriteRecordsAsync
	// sends each request from its own goroutine, so its caller never
	// blocks on this channel.
	WriteQueueDepth int
	// ChunkIO configures the underlying chunked file's buffer pool and
	// I/O engine.
	ChunkIO chunkio.Config
	// AutoFlushPeriod is the ticker interval for AutoWriteRecordsAsync,
	// if the caller doesn't pass an explicit one.
	AutoFlushPeriod time.Duration

	Logger vlog.Logger
}

// Normalize returns a copy of o with zero fields replaced by defaults.
func (o Options) Normalize() Options {
	if o.WriteQueueDepth == 0 {
		o.WriteQueueDepth = DefaultWriteQueueDepth
	}
	if o.Logger == nil {
		o.Logger = vlog.Discard
	}
	o.ChunkIO = o.ChunkIO.Normalize()
	return o
}

// maxChunkSizeBytes returns MaxChunkSizeMB converted to bytes, 0 meaning
// unbounded.
func (o Options) maxChunkSizeBytes() int64 {
	if o.MaxChunkSizeMB <= 0 {
		return 0
	}
	return o.MaxChunkSizeMB * 1024 * 1024
}
