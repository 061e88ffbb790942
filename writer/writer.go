// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"fmt"
	"sync"
	"time"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/chunkio"
	"github.com/openvrs/vrs/compress"
	"github.com/openvrs/vrs/internal/vlog"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordable"
)

// Writer assembles registered Recordable streams into a single VRS
// container file. It aggregates non-owning references to the Recordables
// it was given via AddStream, and exclusively owns the chunk I/O
// underneath it. A Writer is used either in batch mode (WriteToFile) or
// async mode (CreateFileAsync/.../WaitForFileClosed), never both.
type Writer struct {
	opts   Options
	logger vlog.Logger
	pool   *compressionPool

	mu       sync.Mutex
	streams  map[vrs.StreamId]*recordable.Recordable
	order    []vrs.StreamId
	fileTags vrs.Tags
	cf       *chunkio.ChunkedFile
	idx      index

	// async-mode plumbing; nil until CreateFileAsync.
	writeReqCh chan float64
	closeReqCh chan struct{}
	closedCh   chan error
	stopTicker chan struct{}
	wg         sync.WaitGroup
}

// New returns a Writer configured by opts, with no file open and no
// streams registered.
func New(opts Options) *Writer {
	opts = opts.Normalize()
	return &Writer{
		opts:     opts,
		logger:   opts.Logger,
		pool:     newCompressionPool(opts.CompressionPoolSize),
		streams:  make(map[vrs.StreamId]*recordable.Recordable),
		fileTags: make(vrs.Tags),
	}
}

// SetFileTag sets a file-level tag, serialized into the Description block
// at close.
func (w *Writer) SetFileTag(key, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fileTags[key] = value
}

// AddStream registers r as a stream this writer will drain and calls
// r.EnsureAttached, which queues placeholder configuration/state records
// from r's factories for the kinds the caller has not produced.
// hasConfiguration/hasState tell the writer whether the caller already
// produced those records itself.
func (w *Writer) AddStream(r *recordable.Recordable, hasConfiguration, hasState bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := r.StreamID()
	if _, exists := w.streams[id]; exists {
		return fmt.Errorf("%w: stream %s already added", vrs.ErrInvalidState, id)
	}
	r.EnsureAttached(hasConfiguration, hasState)
	w.streams[id] = r
	w.order = append(w.order, id)
	return nil
}

// open creates the underlying chunked file at path and writes the
// FileHeader placeholder block, common to every mode.
func (w *Writer) open(path string) error {
	w.mu.Lock()
	if w.cf != nil {
		w.mu.Unlock()
		return fmt.Errorf("%w: writer already has an open file", vrs.ErrInvalidState)
	}
	w.mu.Unlock()

	cf, err := chunkio.CreateChunkedFile(path, w.opts.ChunkIO, w.opts.maxChunkSizeBytes(), nil, w.logger)
	if err != nil {
		return err
	}
	header := vrs.FileHeader{FormatVersion: vrs.FormatVersion, DescriptionOffset: 0}
	if _, _, err := cf.WriteRecord(header.Marshal()); err != nil {
		cf.Close()
		return err
	}
	w.mu.Lock()
	w.cf = cf
	w.mu.Unlock()
	return nil
}

// WriteToFile runs the writer in batch mode: every record currently
// pending on every registered stream is drained, ordered, compressed,
// and written to path in one synchronous pass.
func (w *Writer) WriteToFile(path string) error {
	if err := w.open(path); err != nil {
		return err
	}
	batches := w.collectBatches(0, true)
	if err := w.emit(MergeBatches(batches)); err != nil {
		_ = w.cf.Close()
		return err
	}
	return w.finalize()
}

// CreateFileAsync opens path and starts the background writer goroutine.
// Producers may keep creating records on their Recordables after this
// returns.
func (w *Writer) CreateFileAsync(path string) error {
	if err := w.open(path); err != nil {
		return err
	}
	w.writeReqCh = make(chan float64, w.opts.WriteQueueDepth)
	w.closeReqCh = make(chan struct{})
	w.closedCh = make(chan error, 1)
	w.stopTicker = make(chan struct{})

	w.wg.Add(1)
	go w.runAsync()
	return nil
}

// WriteRecordsAsync posts a non-blocking request to drain every record
// with timestamp <= cutoff from every stream; the actual drain happens on
// the writer goroutine.
func (w *Writer) WriteRecordsAsync(cutoff float64) {
	go func() { w.writeReqCh <- cutoff }()
}

// AutoWriteRecordsAsync spawns a ticker that calls WriteRecordsAsync with
// cutoffFn's result every period. period falls back to
// Options.AutoFlushPeriod if zero.
func (w *Writer) AutoWriteRecordsAsync(cutoffFn func() float64, period time.Duration) {
	if period <= 0 {
		period = w.opts.AutoFlushPeriod
	}
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.WriteRecordsAsync(cutoffFn())
			case <-w.stopTicker:
				return
			}
		}
	}()
}

// CloseFileAsync requests a final flush and close; it does not block. Call
// WaitForFileClosed to block until the close completes.
func (w *Writer) CloseFileAsync() {
	close(w.stopTicker)
	go func() { w.closeReqCh <- struct{}{} }()
}

// WaitForFileClosed blocks until the writer goroutine has flushed every
// pending record, emitted the index, and closed the file, returning
// whatever error occurred during that final pass, if any.
func (w *Writer) WaitForFileClosed() error {
	err := <-w.closedCh
	w.wg.Wait()
	return err
}

// runAsync is the single long-lived writer goroutine for async mode,
// draining writeReqCh until a close is requested, then draining whatever
// remains (preserving request order) before finalizing the file.
func (w *Writer) runAsync() {
	defer w.wg.Done()
	for {
		select {
		case cutoff := <-w.writeReqCh:
			w.drainOne(cutoff)
		case <-w.closeReqCh:
			for drained := false; !drained; {
				select {
				case cutoff := <-w.writeReqCh:
					w.drainOne(cutoff)
				default:
					drained = true
				}
			}
			batches := w.collectBatches(0, true)
			err := w.emit(MergeBatches(batches))
			if err != nil {
				_ = w.cf.Close()
			} else {
				err = w.finalize()
			}
			w.closedCh <- err
			return
		}
	}
}

func (w *Writer) drainOne(cutoff float64) {
	batches := w.collectBatches(cutoff, false)
	if err := w.emit(MergeBatches(batches)); err != nil {
		w.logger.Errorf("writer: emit failed: %v", err)
	}
}

// collectBatches snapshots the registered streams under lock, then drains
// each one's RecordManager outside the lock (all=true drains everything
// regardless of timestamp, used when finalizing).
func (w *Writer) collectBatches(cutoff float64, all bool) [][]*record.Record {
	w.mu.Lock()
	streams := make([]*recordable.Recordable, len(w.order))
	for i, id := range w.order {
		streams[i] = w.streams[id]
	}
	w.mu.Unlock()

	batches := make([][]*record.Record, 0, len(streams))
	for _, r := range streams {
		var batch []*record.Record
		if all {
			batch = r.Manager().CollectAll(nil)
		} else {
			batch = r.Manager().CollectOldRecords(cutoff, nil)
		}
		if len(batch) > 0 {
			batches = append(batches, batch)
		}
	}
	return batches
}

// emit compresses, frames, and writes records in the given (already
// globally-sorted) order, recording each one's on-disk location in the
// in-memory index.
func (w *Writer) emit(records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}
	payloads := make([][]byte, len(records))
	presets := make([]compress.Preset, len(records))
	for i, r := range records {
		payloads[i] = r.Collect()
		presets[i] = w.opts.Preset
	}
	frames, err := w.pool.CompressAll(payloads, presets)
	if err != nil {
		return err
	}

	for i, r := range records {
		prolog := vrs.RecordProlog{
			StreamID:         r.StreamID,
			RecordType:       r.Type,
			FormatVersion:    r.FormatVersion,
			Timestamp:        r.Timestamp,
			Compression:      uint8(presets[i]),
			UncompressedSize: uint64(len(payloads[i])),
		}
		body := append(prolog.Marshal(), frames[i]...)
		block := vrs.BlockHeader{MagicBytes: vrs.Magic, Type: vrs.BlockTypeRecord, BlockSize: uint64(vrs.BlockHeaderSize + len(body))}
		full := append(block.Marshal(), body...)

		chunkIdx, offsetInChunk, err := w.cf.WriteRecord(full)
		if err != nil {
			return err
		}
		logicalOffset := w.cf.ChunkStart(chunkIdx) + offsetInChunk
		w.idx.append(vrs.IndexEntry{
			Timestamp:  r.Timestamp,
			Offset:     logicalOffset,
			StreamId:   r.StreamID,
			RecordType: r.Type,
		})

		w.mu.Lock()
		owner := w.streams[r.StreamID]
		w.mu.Unlock()
		if owner != nil {
			owner.Manager().Release(r)
		}
	}
	return nil
}

// Open opens path and writes the FileHeader placeholder block, for a
// caller that will append already-assembled records directly via
// WriteRecord/WriteVerbatimRecord rather than draining registered
// streams' managers (the filter/copy pipeline, which has no live
// Recordable to drain from — only records read back out of another
// file).
func (w *Writer) Open(path string) error { return w.open(path) }

// WriteRecord compresses, frames, and appends r directly, bypassing the
// registered-stream drain WriteToFile/WriteRecordsAsync use. r need not
// belong to any stream this Writer knows about via AddStream; a stand-in
// Recordable registered purely to carry the stream's Description entry
// is enough.
func (w *Writer) WriteRecord(r *record.Record) error {
	return w.emit([]*record.Record{r})
}

// WriteVerbatimRecord appends a record whose body is already compressed
// exactly as it was read from a source file, bypassing the compression
// pool entirely — the filter/copy pipeline's verbatim mode never
// inspects or re-encodes a record's bytes.
func (w *Writer) WriteVerbatimRecord(prolog vrs.RecordProlog, compressedBody []byte) error {
	w.mu.Lock()
	cf := w.cf
	w.mu.Unlock()
	if cf == nil {
		return fmt.Errorf("%w: writer has no open file", vrs.ErrInvalidState)
	}

	body := append(prolog.Marshal(), compressedBody...)
	block := vrs.BlockHeader{MagicBytes: vrs.Magic, Type: vrs.BlockTypeRecord, BlockSize: uint64(vrs.BlockHeaderSize + len(body))}
	full := append(block.Marshal(), body...)

	chunkIdx, offsetInChunk, err := cf.WriteRecord(full)
	if err != nil {
		return err
	}
	logicalOffset := cf.ChunkStart(chunkIdx) + offsetInChunk
	w.idx.append(vrs.IndexEntry{
		Timestamp:  prolog.Timestamp,
		Offset:     logicalOffset,
		StreamId:   prolog.StreamID,
		RecordType: prolog.RecordType,
	})
	return nil
}

// Finalize writes the Description, IndexRecord, and EndOfRecords blocks
// and closes the file. Exported alongside Open for the same direct-write
// callers as WriteRecord/WriteVerbatimRecord.
func (w *Writer) Finalize() error { return w.finalize() }

// finalize writes the Description, IndexRecord, and EndOfRecords blocks,
// patches the FileHeader's DescriptionOffset, and closes the chunked
// file. Called once, either at the end of WriteToFile or after the final
// drain in async mode.
func (w *Writer) finalize() error {
	w.mu.Lock()
	order := make([]vrs.StreamId, len(w.order))
	copy(order, w.order)
	streams := make(map[vrs.StreamId]*recordable.Recordable, len(w.streams))
	for k, v := range w.streams {
		streams[k] = v
	}
	fileTags := w.fileTags.Clone()
	w.mu.Unlock()

	desc := vrs.Description{FileTags: fileTags}
	for _, id := range order {
		r := streams[id]
		desc.Streams = append(desc.Streams, vrs.StreamDescription{
			TypeID:     id.TypeID,
			InstanceID: id.InstanceID,
			Flavor:     r.Flavor(),
			UserTags:   r.UserTags(),
			VrsTags:    r.VRSTags(),
		})
	}
	descPayload, err := desc.Marshal()
	if err != nil {
		_ = w.cf.Close()
		return err
	}
	descPayload = vrs.AppendChecksum(descPayload)
	descBlock := vrs.BlockHeader{MagicBytes: vrs.Magic, Type: vrs.BlockTypeDescription, BlockSize: uint64(vrs.BlockHeaderSize + len(descPayload))}
	descChunkIdx, descOffsetInChunk, err := w.cf.WriteRecord(append(descBlock.Marshal(), descPayload...))
	if err != nil {
		_ = w.cf.Close()
		return err
	}
	descriptionOffset := w.cf.ChunkStart(descChunkIdx) + descOffsetInChunk

	idxPayload := vrs.AppendChecksum(w.idx.Marshal())
	idxBlock := vrs.BlockHeader{MagicBytes: vrs.Magic, Type: vrs.BlockTypeIndexRecord, BlockSize: uint64(vrs.BlockHeaderSize + len(idxPayload))}
	if _, _, err := w.cf.WriteRecord(append(idxBlock.Marshal(), idxPayload...)); err != nil {
		_ = w.cf.Close()
		return err
	}

	eofBlock := vrs.BlockHeader{MagicBytes: vrs.Magic, Type: vrs.BlockTypeEndOfRecords, BlockSize: vrs.BlockHeaderSize}
	if _, _, err := w.cf.WriteRecord(eofBlock.Marshal()); err != nil {
		_ = w.cf.Close()
		return err
	}

	if err := w.cf.PatchAt(vrs.MarshalDescriptionOffset(descriptionOffset), vrs.DescriptionOffsetFieldOffset); err != nil {
		_ = w.cf.Close()
		return err
	}
	return w.cf.Close()
}
