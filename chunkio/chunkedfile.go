// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package chunkio

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/internal/vlog"
)

// ChunkNamer derives the on-disk path of the n'th chunk (0-based) of a
// logical file rooted at basePath; chunk paths must be derivable without
// reading file content.
type ChunkNamer func(basePath string, n int) string

// DefaultChunkNamer names chunks basePath, basePath_1, basePath_2, ....
func DefaultChunkNamer(basePath string, n int) string {
	if n == 0 {
		return basePath
	}
	return fmt.Sprintf("%s_%d", basePath, n)
}

// ChunkedFile presents a set of Chunks, each bounded by MaxChunkSize, as a
// single logical, append-only, randomly-readable byte stream. Records are
// never split across chunk boundaries: a write that would overflow the
// current chunk rotates to a new one first.
type ChunkedFile struct {
	basePath     string
	cfg          Config
	namer        ChunkNamer
	maxChunkSize int64
	logger       vlog.Logger

	chunks      []*Chunk
	chunkStart  []int64 // logical offset at which each chunk begins
	chunkSize   []int64 // each chunk's size when it was opened (0 for a new chunk); not updated by writes
	currentSize int64   // the last chunk's size when it was added or opened; not updated by writes
}

// CreateChunkedFile starts a brand-new chunked file at basePath with a
// single empty chunk.
func CreateChunkedFile(basePath string, cfg Config, maxChunkSize int64, namer ChunkNamer, logger vlog.Logger) (*ChunkedFile, error) {
	if namer == nil {
		namer = DefaultChunkNamer
	}
	if logger == nil {
		logger = vlog.Discard
	}
	cf := &ChunkedFile{
		basePath:     basePath,
		cfg:          cfg.Normalize(),
		namer:        namer,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
	if err := cf.addChunk(); err != nil {
		return nil, err
	}
	return cf, nil
}

// OpenChunkedFile reopens an existing chunked file given the ordered list
// of its chunk paths (as recorded in a file's index or resolved via
// FileSpec).
func OpenChunkedFile(paths []string, cfg Config, maxChunkSize int64, logger vlog.Logger) (*ChunkedFile, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no chunk paths given", vrs.ErrInvalidParameter)
	}
	if logger == nil {
		logger = vlog.Discard
	}
	cf := &ChunkedFile{
		basePath:     paths[0],
		cfg:          cfg.Normalize(),
		namer:        DefaultChunkNamer,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
	var offset int64
	for _, p := range paths {
		c, err := OpenExisting(p, cf.cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %q: %v", vrs.ErrInvalidFileFormat, p, err)
		}
		cf.chunks = append(cf.chunks, c)
		cf.chunkStart = append(cf.chunkStart, offset)
		cf.chunkSize = append(cf.chunkSize, c.Size())
		offset += c.Size()
	}
	cf.currentSize = cf.chunks[len(cf.chunks)-1].Size()
	return cf, nil
}

func (cf *ChunkedFile) addChunk() error {
	n := len(cf.chunks)
	path := cf.namer(cf.basePath, n)
	c, err := Open(path, cf.cfg, cf.logger)
	if err != nil {
		return err
	}
	var start int64
	if n > 0 {
		start = cf.chunkStart[n-1] + cf.chunks[n-1].Size()
	}
	cf.chunks = append(cf.chunks, c)
	cf.chunkStart = append(cf.chunkStart, start)
	cf.chunkSize = append(cf.chunkSize, 0)
	cf.currentSize = 0
	return nil
}

// ChunkStart returns the logical offset at which chunk idx begins, for
// callers (e.g. a RecordFileWriter) that need to turn a (chunkIndex,
// offsetInChunk) pair from WriteRecord back into a single logical offset.
func (cf *ChunkedFile) ChunkStart(idx int) int64 {
	return cf.chunkStart[idx]
}

// ChunkPaths returns the on-disk path of every chunk in order.
func (cf *ChunkedFile) ChunkPaths() []string {
	paths := make([]string, len(cf.chunks))
	for i, c := range cf.chunks {
		paths[i] = c.Path()
	}
	return paths
}

// Size returns the total logical size across every chunk.
func (cf *ChunkedFile) Size() int64 {
	if len(cf.chunks) == 0 {
		return 0
	}
	return cf.chunkStart[len(cf.chunks)-1] + cf.chunks[len(cf.chunks)-1].Size()
}

// WriteRecord writes a single, indivisible record's bytes, rotating to a
// new chunk first if the record would not fit in the remaining space of
// the current chunk. It returns the index of the chunk the record landed
// in and the record's offset within that chunk; ChunkStart turns the pair
// into a logical offset.
func (cf *ChunkedFile) WriteRecord(p []byte) (chunkIndex int, offsetInChunk int64, err error) {
	last := len(cf.chunks) - 1
	cur := cf.chunks[last]
	if cf.maxChunkSize > 0 && cur.Size() > 0 && cur.Size()+int64(len(p)) > cf.maxChunkSize {
		if err := cur.Flush(); err != nil {
			return 0, 0, err
		}
		if err := cf.addChunk(); err != nil {
			return 0, 0, err
		}
		last = len(cf.chunks) - 1
		cur = cf.chunks[last]
	}
	offsetInChunk = cur.Size()
	if _, err := cur.Write(p); err != nil {
		return 0, 0, err
	}
	return last, offsetInChunk, nil
}

// Flush flushes every chunk.
func (cf *ChunkedFile) Flush() error {
	for _, c := range cf.chunks {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes every chunk.
func (cf *ChunkedFile) Close() error {
	var first error
	for _, c := range cf.chunks {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadAt reads len(p) bytes starting at the given logical (cross-chunk)
// offset. Per the "records never span chunk boundaries" invariant this is
// only ever called with a range wholly inside one chunk, but ReadAt
// itself tolerates spanning two adjacent chunks defensively.
func (cf *ChunkedFile) ReadAt(p []byte, logicalOffset int64) (int, error) {
	idx := cf.chunkIndexFor(logicalOffset)
	if idx < 0 {
		return 0, vrs.ErrNotEnoughData
	}
	read := 0
	for read < len(p) && idx < len(cf.chunks) {
		localOff := logicalOffset + int64(read) - cf.chunkStart[idx]
		n, err := cf.chunks[idx].ReadAt(p[read:], localOff)
		read += n
		if err != nil {
			if read == len(p) {
				break
			}
			if localOff+int64(n) < cf.chunks[idx].Size() || idx == len(cf.chunks)-1 {
				return read, err
			}
		}
		idx++
	}
	return read, nil
}

// PatchAt overwrites already-durable bytes at logicalOffset, used to
// rewrite a fixed-size header field once its value becomes known. The
// patched range must lie wholly inside one chunk.
func (cf *ChunkedFile) PatchAt(p []byte, logicalOffset int64) error {
	idx := cf.chunkIndexFor(logicalOffset)
	if idx < 0 {
		return fmt.Errorf("%w: patch offset %d out of range", vrs.ErrInvalidParameter, logicalOffset)
	}
	return cf.chunks[idx].PatchAt(p, logicalOffset-cf.chunkStart[idx])
}

// chunkIndexFor returns the index of the chunk containing logicalOffset,
// or -1 if out of range.
func (cf *ChunkedFile) chunkIndexFor(logicalOffset int64) int {
	i := sort.Search(len(cf.chunkStart), func(i int) bool {
		return cf.chunkStart[i] > logicalOffset
	})
	i--
	if i < 0 || i >= len(cf.chunks) {
		return -1
	}
	return i
}

// RemoveAll deletes every chunk file on disk, used when a writer is
// abandoned before being finalized.
func (cf *ChunkedFile) RemoveAll() error {
	var first error
	for _, c := range cf.chunks {
		_ = c.Close()
		if err := os.Remove(c.Path()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// IsChunkSibling reports whether candidate looks like a sibling chunk of
// basePath produced by DefaultChunkNamer (basePath_<n>).
func IsChunkSibling(basePath, candidate string) bool {
	if candidate == basePath {
		return true
	}
	prefix := basePath + "_"
	return strings.HasPrefix(candidate, prefix)
}
