// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package reader implements sequential and random-access playback of a
// VRS container file: opening, index load or rebuild, and the GetRecord
// family, dispatching each read record to a caller-registered
// StreamPlayer.
package reader

import (
	"fmt"
	"os"
	"sort"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/chunkio"
	"github.com/openvrs/vrs/compress"
	"github.com/openvrs/vrs/internal/vlog"
	"github.com/openvrs/vrs/writer"
)

// RecordInfo is the header information available to a StreamPlayer before
// (and while) its payload is decoded.
type RecordInfo struct {
	StreamID         vrs.StreamId
	RecordType       vrs.RecordType
	FormatVersion    uint32
	Timestamp        float64
	UncompressedSize uint64
}

// StreamPlayer is the per-stream callback target a caller registers with
// a Reader. ProcessRecordHeader decides whether the record's payload is
// worth decompressing at all; returning false skips it cheaply.
// ProcessRecord then receives the decompressed payload.
type StreamPlayer interface {
	ProcessRecordHeader(info RecordInfo) bool
	ProcessRecord(info RecordInfo, payload []byte) error
}

type streamTypeKey struct {
	streamID   vrs.StreamId
	recordType vrs.RecordType
}

// Reader opens a VRS container file for sequential or random-access
// playback. It owns its chunked file and index; the map from StreamId to
// StreamPlayer is supplied and owned by the caller.
type Reader struct {
	cf     *chunkio.ChunkedFile
	logger vlog.Logger

	header vrs.FileHeader
	desc   vrs.Description

	streamIDs  []vrs.StreamId
	streamDesc map[vrs.StreamId]vrs.StreamDescription

	global        []vrs.IndexEntry
	perStream     map[vrs.StreamId][]vrs.IndexEntry
	perStreamType map[streamTypeKey][]vrs.IndexEntry

	players  map[vrs.StreamId]StreamPlayer
	degraded bool
}

// Open opens path (a plain file path, a JSON chunk-spec, or the first
// chunk of a default-named multi-chunk file) and loads its Description
// and index, rebuilding the index by a linear scan if it is missing or
// corrupt.
func Open(path string, logger vlog.Logger) (*Reader, error) {
	if logger == nil {
		logger = vlog.Discard
	}
	spec, err := vrs.ParsePath(path)
	if err != nil {
		return nil, err
	}
	if spec.IsExternal() {
		return nil, fmt.Errorf("%w: external file handler scheme %q", vrs.ErrUnsupportedFeature, spec.Scheme)
	}

	var paths []string
	if spec.IsChunked() {
		paths = spec.Chunks
	} else {
		paths, err = discoverChunkPaths(spec.FileName)
		if err != nil {
			return nil, err
		}
	}

	cf, err := chunkio.OpenChunkedFile(paths, chunkio.Config{}, 0, logger)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		cf:         cf,
		logger:     logger,
		streamDesc: make(map[vrs.StreamId]vrs.StreamDescription),
		players:    make(map[vrs.StreamId]StreamPlayer),
	}
	if err := r.load(); err != nil {
		_ = cf.Close()
		return nil, err
	}
	return r, nil
}

// discoverChunkPaths finds basePath plus every DefaultChunkNamer sibling
// that exists on disk, in order, for a file opened by a single base path
// rather than an explicit chunk list.
func discoverChunkPaths(basePath string) ([]string, error) {
	if _, err := os.Stat(basePath); err != nil {
		return nil, err
	}
	paths := []string{basePath}
	for n := 1; ; n++ {
		p := chunkio.DefaultChunkNamer(basePath, n)
		if _, err := os.Stat(p); err != nil {
			break
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Close closes the underlying chunked file.
func (r *Reader) Close() error { return r.cf.Close() }

// SetStreamPlayer registers the player that will receive records for
// streamID. Passing nil un-registers it.
func (r *Reader) SetStreamPlayer(streamID vrs.StreamId, player StreamPlayer) {
	if player == nil {
		delete(r.players, streamID)
		return
	}
	r.players[streamID] = player
}

// StreamIds returns every stream described by the file's Description
// block, in declaration order.
func (r *Reader) StreamIds() []vrs.StreamId { return r.streamIDs }

// StreamTags returns the registered tags for streamID, and whether it
// exists in the file.
func (r *Reader) StreamTags(streamID vrs.StreamId) (vrs.StreamDescription, bool) {
	sd, ok := r.streamDesc[streamID]
	return sd, ok
}

// FileTags returns the file-level tags persisted in the Description block.
func (r *Reader) FileTags() vrs.Tags { return r.desc.FileTags.Clone() }

// RecordCount returns the total number of records in the file's global
// ordering.
func (r *Reader) RecordCount() int { return len(r.global) }

// GlobalEntries returns the file's full index in global sorted order.
// Exported for MultiRecordFileReader, which merges several files' index
// entries into one combined order; callers must not modify the slice.
func (r *Reader) GlobalEntries() []vrs.IndexEntry { return r.global }

// ReadRawRecord reads entry's prolog and still-compressed body, without
// decompressing it. Used by the filter/copy pipeline's verbatim mode,
// which copies a record's bytes exactly as stored rather than decoding
// and re-encoding them.
func (r *Reader) ReadRawRecord(entry vrs.IndexEntry) (vrs.RecordProlog, []byte, error) {
	hdr, payload, err := r.readBlockAt(entry.Offset)
	if err != nil {
		return vrs.RecordProlog{}, nil, err
	}
	if hdr.Type != vrs.BlockTypeRecord {
		return vrs.RecordProlog{}, nil, fmt.Errorf("%w: offset %d is not a record block", vrs.ErrIndexCorrupt, entry.Offset)
	}
	prolog, err := vrs.UnmarshalRecordProlog(payload)
	if err != nil {
		return vrs.RecordProlog{}, nil, err
	}
	return prolog, payload[vrs.RecordPrologSize:], nil
}

// ReadDecodedRecord reads and decompresses entry's payload, without
// requiring a registered StreamPlayer. Used by the filter/copy pipeline's
// re-encoding mode, which may transform a record's content blocks before
// writing it back out.
func (r *Reader) ReadDecodedRecord(entry vrs.IndexEntry) (vrs.RecordProlog, []byte, error) {
	prolog, compressed, err := r.ReadRawRecord(entry)
	if err != nil {
		return vrs.RecordProlog{}, nil, err
	}
	decoded, err := compress.DecompressAll(compressed)
	if err != nil {
		return vrs.RecordProlog{}, nil, err
	}
	return prolog, decoded, nil
}

// DispatchEntry reads and dispatches an arbitrary IndexEntry, which must
// have come from this same Reader's GlobalEntries. Exported for
// MultiRecordFileReader, which tracks merged entries by the Reader they
// belong to rather than by position in any single Reader's own index.
func (r *Reader) DispatchEntry(entry vrs.IndexEntry) error { return r.dispatch(entry) }

// StreamRecordCount returns how many records of any type belong to
// streamID.
func (r *Reader) StreamRecordCount(streamID vrs.StreamId) int {
	return len(r.perStream[streamID])
}

// Degraded reports whether Open had to rebuild the index by a linear scan
// because the Description or IndexRecord block was missing or corrupt.
func (r *Reader) Degraded() bool { return r.degraded }

func (r *Reader) load() error {
	header, err := r.readFileHeader()
	if err != nil {
		return err
	}
	r.header = header

	desc, descBlockSize, err := r.readDescriptionAt(header.DescriptionOffset)
	if err != nil {
		r.logger.Errorf("reader: description unreadable at offset %d: %v; rebuilding index by scan", header.DescriptionOffset, err)
		entries, scanErr := r.rebuildIndexByScan()
		if scanErr != nil {
			return scanErr
		}
		r.degraded = true
		r.setIndex(entries)
		return nil
	}
	r.desc = desc
	for _, sd := range desc.Streams {
		id := sd.StreamId()
		r.streamDesc[id] = sd
		r.streamIDs = append(r.streamIDs, id)
	}

	entries, err := r.readIndexAt(header.DescriptionOffset + int64(descBlockSize))
	if err != nil {
		r.logger.Errorf("reader: index unreadable: %v; rebuilding by scan", err)
		entries, err = r.rebuildIndexByScan()
		if err != nil {
			return err
		}
		r.degraded = true
	}
	r.setIndex(entries)
	return nil
}

func (r *Reader) setIndex(entries []vrs.IndexEntry) {
	r.global = append([]vrs.IndexEntry(nil), entries...)
	vrs.SortIndexEntries(r.global)

	r.perStream = make(map[vrs.StreamId][]vrs.IndexEntry, len(r.streamIDs))
	r.perStreamType = make(map[streamTypeKey][]vrs.IndexEntry)
	for _, e := range r.global {
		r.perStream[e.StreamId] = append(r.perStream[e.StreamId], e)
		key := streamTypeKey{e.StreamId, e.RecordType}
		r.perStreamType[key] = append(r.perStreamType[key], e)
	}
}

// readBlockAt reads one block's header and payload at a logical offset.
func (r *Reader) readBlockAt(offset int64) (vrs.BlockHeader, []byte, error) {
	headerBuf := make([]byte, vrs.BlockHeaderSize)
	if _, err := r.cf.ReadAt(headerBuf, offset); err != nil {
		return vrs.BlockHeader{}, nil, err
	}
	hdr, err := vrs.UnmarshalBlockHeader(headerBuf)
	if err != nil {
		return vrs.BlockHeader{}, nil, err
	}
	payload := make([]byte, hdr.PayloadSize())
	if len(payload) > 0 {
		if _, err := r.cf.ReadAt(payload, offset+vrs.BlockHeaderSize); err != nil {
			return vrs.BlockHeader{}, nil, err
		}
	}
	return hdr, payload, nil
}

func (r *Reader) readFileHeader() (vrs.FileHeader, error) {
	hdr, payload, err := r.readBlockAt(0)
	if err != nil {
		return vrs.FileHeader{}, err
	}
	if hdr.Type != vrs.BlockTypeFileHeader {
		return vrs.FileHeader{}, fmt.Errorf("%w: expected file header block at offset 0", vrs.ErrInvalidFileFormat)
	}
	return vrs.UnmarshalFileHeader(payload)
}

func (r *Reader) readDescriptionAt(offset int64) (vrs.Description, uint64, error) {
	hdr, payload, err := r.readBlockAt(offset)
	if err != nil {
		return vrs.Description{}, 0, err
	}
	if hdr.Type != vrs.BlockTypeDescription {
		return vrs.Description{}, 0, fmt.Errorf("%w: expected description block at offset %d", vrs.ErrInvalidFileFormat, offset)
	}
	body, ok := vrs.SplitChecksum(payload)
	if !ok {
		return vrs.Description{}, 0, fmt.Errorf("%w: description block checksum mismatch at offset %d", vrs.ErrInvalidFileFormat, offset)
	}
	desc, err := vrs.UnmarshalDescription(body)
	if err != nil {
		return vrs.Description{}, 0, err
	}
	return desc, hdr.BlockSize, nil
}

func (r *Reader) readIndexAt(offset int64) ([]vrs.IndexEntry, error) {
	hdr, payload, err := r.readBlockAt(offset)
	if err != nil {
		return nil, err
	}
	if hdr.Type != vrs.BlockTypeIndexRecord {
		return nil, fmt.Errorf("%w: expected index record at offset %d", vrs.ErrIndexMissing, offset)
	}
	body, ok := vrs.SplitChecksum(payload)
	if !ok {
		return nil, fmt.Errorf("%w: index record checksum mismatch at offset %d", vrs.ErrIndexCorrupt, offset)
	}
	return writer.UnmarshalIndex(body)
}

// rebuildIndexByScan recovers index entries by walking every block header
// sequentially from just past the FileHeader, decoding each Record
// block's prolog directly. It stops at EndOfRecords, or at the end of
// the chunked file if that marker is itself missing or truncated.
func (r *Reader) rebuildIndexByScan() ([]vrs.IndexEntry, error) {
	var entries []vrs.IndexEntry
	offset := int64(vrs.BlockHeaderSize + vrs.FileHeaderPayloadSize)
	total := r.cf.Size()
	for offset+vrs.BlockHeaderSize <= total {
		hdr, payload, err := r.readBlockAt(offset)
		if err != nil {
			break
		}
		switch hdr.Type {
		case vrs.BlockTypeRecord:
			if len(payload) >= vrs.RecordPrologSize {
				if prolog, perr := vrs.UnmarshalRecordProlog(payload); perr == nil {
					entries = append(entries, vrs.IndexEntry{
						Timestamp:  prolog.Timestamp,
						Offset:     offset,
						StreamId:   prolog.StreamID,
						RecordType: prolog.RecordType,
					})
				}
			}
		case vrs.BlockTypeEndOfRecords:
			vrs.SortIndexEntries(entries)
			return entries, nil
		}
		offset += int64(hdr.BlockSize)
	}
	vrs.SortIndexEntries(entries)
	return entries, nil
}

// dispatch reads the record block at entry.Offset and, if a StreamPlayer
// is registered for its stream, decompresses its payload and hands it
// off. A record on an unregistered stream is silently skipped.
func (r *Reader) dispatch(entry vrs.IndexEntry) error {
	hdr, payload, err := r.readBlockAt(entry.Offset)
	if err != nil {
		return err
	}
	if hdr.Type != vrs.BlockTypeRecord {
		return fmt.Errorf("%w: offset %d is not a record block", vrs.ErrIndexCorrupt, entry.Offset)
	}
	prolog, err := vrs.UnmarshalRecordProlog(payload)
	if err != nil {
		return err
	}
	player, ok := r.players[prolog.StreamID]
	if !ok {
		return nil
	}
	info := RecordInfo{
		StreamID:         prolog.StreamID,
		RecordType:       prolog.RecordType,
		FormatVersion:    prolog.FormatVersion,
		Timestamp:        prolog.Timestamp,
		UncompressedSize: prolog.UncompressedSize,
	}
	if !player.ProcessRecordHeader(info) {
		return nil
	}
	body := payload[vrs.RecordPrologSize:]
	decoded, err := compress.DecompressAll(body)
	if err != nil {
		return err
	}
	return player.ProcessRecord(info, decoded)
}

// GetRecord reads the nth record in the file's global ordering.
func (r *Reader) GetRecord(nth int) error {
	if nth < 0 || nth >= len(r.global) {
		return fmt.Errorf("%w: global record index %d out of range (have %d)", vrs.ErrInvalidParameter, nth, len(r.global))
	}
	return r.dispatch(r.global[nth])
}

// GetStreamRecord reads the nth record (of any type, in timestamp order)
// belonging to streamID.
func (r *Reader) GetStreamRecord(streamID vrs.StreamId, nth int) error {
	bucket := r.perStream[streamID]
	if nth < 0 || nth >= len(bucket) {
		return fmt.Errorf("%w: stream %s record index %d out of range (have %d)", vrs.ErrInvalidParameter, streamID, nth, len(bucket))
	}
	return r.dispatch(bucket[nth])
}

// GetStreamTypeRecord reads the nth record of the given type belonging to
// streamID.
func (r *Reader) GetStreamTypeRecord(streamID vrs.StreamId, recordType vrs.RecordType, nth int) error {
	bucket := r.perStreamType[streamTypeKey{streamID, recordType}]
	if nth < 0 || nth >= len(bucket) {
		return fmt.Errorf("%w: stream %s type %s record index %d out of range (have %d)", vrs.ErrInvalidParameter, streamID, recordType, nth, len(bucket))
	}
	return r.dispatch(bucket[nth])
}

// GetRecordByTime reads streamID's record with the greatest timestamp not
// exceeding t.
func (r *Reader) GetRecordByTime(streamID vrs.StreamId, t float64) error {
	bucket := r.perStream[streamID]
	if len(bucket) == 0 {
		return fmt.Errorf("%w: %s", vrs.ErrStreamNotFound, streamID)
	}
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i].Timestamp > t })
	if i == 0 {
		return fmt.Errorf("%w: stream %s has no record at or before time %g", vrs.ErrInvalidParameter, streamID, t)
	}
	return r.dispatch(bucket[i-1])
}

// ReadFirstConfigurationRecord reads streamID's earliest Configuration
// record, the pre-roll step a player runs before seeking into a stream.
func (r *Reader) ReadFirstConfigurationRecord(streamID vrs.StreamId) error {
	bucket := r.perStreamType[streamTypeKey{streamID, vrs.RecordTypeConfiguration}]
	if len(bucket) == 0 {
		return fmt.Errorf("%w: stream %s has no configuration record", vrs.ErrStreamNotFound, streamID)
	}
	return r.dispatch(bucket[0])
}

// ReadFirstConfigurationRecords reads every stream's earliest
// Configuration record, skipping streams that have none.
func (r *Reader) ReadFirstConfigurationRecords() error {
	for _, id := range r.streamIDs {
		if len(r.perStreamType[streamTypeKey{id, vrs.RecordTypeConfiguration}]) == 0 {
			continue
		}
		if err := r.ReadFirstConfigurationRecord(id); err != nil {
			return err
		}
	}
	return nil
}
