// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package chunkio

import (
	"fmt"
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/internal/vlog"
)

// Chunk is a single append-only, positioned-read file backed by a fixed
// pool of aligned buffers. Writes accumulate into a "current" buffer;
// full buffers are handed to a bounded set of background writer
// goroutines (the stand-in for the OS's async-I/O completion threads,
// see DESIGN.md). Reads always flush pending writes first.
type Chunk struct {
	cfg    Config
	path   string
	file   *os.File
	pool   *pool
	logger vlog.Logger

	mu          sync.Mutex
	current     *buffer
	writeOffset int64 // logical end of everything written or queued
	flushedSize int64 // bytes actually durable on disk
	err         error
	directIOOK  bool

	sem chan struct{}
	wg  sync.WaitGroup

	mapMu   sync.Mutex
	mapped  mmap.MMap
	mapSize int64
}

// Open creates or truncates path and returns a Chunk ready for writing and
// reading, per cfg (normalized with Config.Normalize if the caller hasn't).
func Open(path string, cfg Config, logger vlog.Logger) (*Chunk, error) {
	cfg = cfg.Normalize()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = vlog.Discard
	}
	return &Chunk{
		cfg:        cfg,
		path:       path,
		file:       f,
		pool:       newPool(cfg),
		logger:     logger,
		sem:        make(chan struct{}, cfg.Depth),
		directIOOK: cfg.DirectIO,
	}, nil
}

// OpenExisting opens path for reading (and further appending) without
// truncating it, used when resuming a reader over an already-written file.
func OpenExisting(path string, cfg Config, logger vlog.Logger) (*Chunk, error) {
	cfg = cfg.Normalize()
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if logger == nil {
		logger = vlog.Discard
	}
	return &Chunk{
		cfg:         cfg,
		path:        path,
		file:        f,
		pool:        newPool(cfg),
		logger:      logger,
		sem:         make(chan struct{}, cfg.Depth),
		directIOOK:  cfg.DirectIO,
		writeOffset: info.Size(),
		flushedSize: info.Size(),
	}, nil
}

// Path returns the chunk's filename.
func (c *Chunk) Path() string { return c.path }

// Size returns the logical size of the chunk, including data still queued
// or in-flight but not yet durable.
func (c *Chunk) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeOffset
}

func (c *Chunk) latch(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

func (c *Chunk) checkLatched() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Write appends p to the chunk. Full buffers are handed off to background
// writers; Write blocks only when every buffer in the pool is occupied.
func (c *Chunk) Write(p []byte) (int, error) {
	if err := c.checkLatched(); err != nil {
		return 0, err
	}
	if c.cfg.DirectIO && c.directIOOK && len(p)%c.cfg.OffsetAlignment != 0 {
		c.mu.Lock()
		c.directIOOK = false
		c.mu.Unlock()
		c.logger.Warnf("chunkio: write of %d bytes is not offset-aligned, disabling direct I/O for %s", len(p), c.path)
	}

	written := 0
	for written < len(p) {
		c.mu.Lock()
		if c.current == nil {
			c.mu.Unlock()
			b := c.pool.acquireFilling()
			c.mu.Lock()
			b.offset = c.writeOffset
			c.current = b
		}
		cur := c.current
		n := copy(cur.data[cur.fill:], p[written:])
		cur.fill += n
		c.writeOffset += int64(n)
		written += n
		full := cur.fill == len(cur.data)
		if full {
			c.current = nil
		}
		c.mu.Unlock()

		if full {
			c.dispatch(cur)
		}
	}
	return written, nil
}

// dispatch hands a Filling buffer to a background writer goroutine, gated
// by the configured outstanding-I/O depth.
func (c *Chunk) dispatch(b *buffer) {
	c.sem <- struct{}{}
	c.pool.markQueued(b)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() { <-c.sem }()
		c.pool.markInFlight(b)
		_, err := c.file.WriteAt(b.data[:b.fill], b.offset)
		if err != nil {
			c.latch(fmt.Errorf("%w: %v", vrs.ErrPartialWrite, err))
		} else {
			c.mu.Lock()
			if b.offset+int64(b.fill) > c.flushedSize {
				c.flushedSize = b.offset + int64(b.fill)
			}
			c.mu.Unlock()
		}
		c.pool.releaseToFree(b)
	}()
}

// Flush drains any partially-filled current buffer and blocks until every
// outstanding write has completed, surfacing the first latched async
// error, if any.
func (c *Chunk) Flush() error {
	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.mu.Unlock()

	if cur != nil && cur.fill > 0 {
		c.dispatch(cur)
	} else if cur != nil {
		c.pool.releaseToFree(cur)
	}

	c.wg.Wait()
	return c.checkLatched()
}

// ReadAt performs a positioned read. Any read first triggers a
// synchronous flush of all pending writes.
func (c *Chunk) ReadAt(p []byte, off int64) (int, error) {
	if err := c.Flush(); err != nil {
		return 0, err
	}

	if c.cfg.Engine == Synchronous && !c.cfg.DirectIO {
		return c.readAtMmap(p, off)
	}
	n, err := c.file.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("%w: %v", vrs.ErrNotEnoughData, err)
	}
	return n, nil
}

func (c *Chunk) readAtMmap(p []byte, off int64) (int, error) {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()

	size := c.Size()
	if size == 0 {
		return 0, vrs.ErrNotEnoughData
	}
	if c.mapped == nil || c.mapSize != size {
		if c.mapped != nil {
			_ = c.mapped.Unmap()
			c.mapped = nil
		}
		m, err := mmap.Map(c.file, mmap.RDONLY, 0)
		if err != nil {
			return c.file.ReadAt(p, off)
		}
		c.mapped = m
		c.mapSize = size
	}
	if off < 0 || off >= int64(len(c.mapped)) {
		return 0, vrs.ErrNotEnoughData
	}
	n := copy(p, c.mapped[off:])
	if n < len(p) {
		return n, vrs.ErrNotEnoughData
	}
	return n, nil
}

// PatchAt overwrites already-durable bytes at off, flushing first so the
// region being patched cannot race a pending background write. Used to
// rewrite a fixed-size header field (e.g. FileHeader.DescriptionOffset)
// once its value becomes known, without reopening the file.
func (c *Chunk) PatchAt(p []byte, off int64) error {
	if err := c.Flush(); err != nil {
		return err
	}
	if _, err := c.file.WriteAt(p, off); err != nil {
		return fmt.Errorf("%w: %v", vrs.ErrPartialWrite, err)
	}
	c.mapMu.Lock()
	if c.mapped != nil {
		_ = c.mapped.Unmap()
		c.mapped = nil
	}
	c.mapMu.Unlock()
	return nil
}

// Close flushes outstanding writes and releases the underlying file
// descriptor and any memory mapping.
func (c *Chunk) Close() error {
	err := c.Flush()
	c.mapMu.Lock()
	if c.mapped != nil {
		_ = c.mapped.Unmap()
		c.mapped = nil
	}
	c.mapMu.Unlock()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Outstanding reports how many buffers are Queued or In-flight; exposed
// for tests asserting the depth invariant.
func (c *Chunk) Outstanding() int {
	return c.pool.outstanding()
}
