// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"fmt"
	"sort"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/internal/vlog"
)

// originalKey identifies a stream by the file it came from plus its
// as-recorded StreamId, before any reassignment MultiRecordFileReader
// applies to resolve collisions across files.
type originalKey struct {
	readerIndex int
	original    vrs.StreamId
}

// mergedEntry is one file's IndexEntry carried alongside enough context
// to dispatch it through the right underlying Reader and to sort it
// against entries from every other open file.
type mergedEntry struct {
	readerIndex int
	original    vrs.IndexEntry
	sortKey     vrs.IndexEntry // same entry, StreamId rewritten to its merged id
}

// MultiRecordFileReader presents N related VRS files as a single merged,
// globally time-ordered stream: one StreamId space, with any cross-file
// collisions resolved by reassigning instance-ids, and one merged index
// driving playback.
type MultiRecordFileReader struct {
	readers []*Reader

	mapping map[vrs.StreamId]originalKey // merged id -> (file, original id)
	reverse map[originalKey]vrs.StreamId // (file, original id) -> merged id
	streamIDs []vrs.StreamId

	global []mergedEntry
}

// OpenMulti opens every path in paths, verifies they agree on every file
// tag in vrs.RelatedFileTagNames that the first file sets, and returns a
// reader merging all their records into one globally-sorted sequence. On
// any error, every already-opened file is closed before returning.
func OpenMulti(paths []string, logger vlog.Logger) (*MultiRecordFileReader, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files given", vrs.ErrInvalidParameter)
	}
	readers := make([]*Reader, 0, len(paths))
	closeAll := func() {
		for _, rd := range readers {
			_ = rd.Close()
		}
	}
	for _, p := range paths {
		rd, err := Open(p, logger)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open %q: %w", p, err)
		}
		readers = append(readers, rd)
	}
	if err := checkRelated(readers); err != nil {
		closeAll()
		return nil, err
	}

	m := &MultiRecordFileReader{
		readers: readers,
		mapping: make(map[vrs.StreamId]originalKey),
		reverse: make(map[originalKey]vrs.StreamId),
	}
	m.assignStreamIDs()
	m.mergeIndex()
	return m, nil
}

// checkRelated enforces that every file agrees on each relatedness tag
// the first file sets; a tag the first file does not set imposes no
// constraint. Disagreement, or a later file missing a tag the first file
// sets, is reported as vrs.ErrUnsupportedFeature.
func checkRelated(readers []*Reader) error {
	if len(readers) < 2 {
		return nil
	}
	baseline := readers[0].FileTags()
	for i := 1; i < len(readers); i++ {
		tags := readers[i].FileTags()
		for _, name := range vrs.RelatedFileTagNames {
			want, ok := baseline[name]
			if !ok {
				continue
			}
			got, ok := tags[name]
			if !ok || got != want {
				return fmt.Errorf("%w: file %d does not share %s=%q with the first file", vrs.ErrUnsupportedFeature, i, name, want)
			}
		}
	}
	return nil
}

// assignStreamIDs walks every reader's streams in input-file order,
// keeping each stream's StreamId if it is still free across the files
// already processed, or reassigning it to the lowest free instance-id
// for its type-id otherwise.
func (m *MultiRecordFileReader) assignStreamIDs() {
	usedByType := make(map[uint16]map[uint16]bool)
	for ri, rd := range m.readers {
		for _, orig := range rd.StreamIds() {
			used, ok := usedByType[orig.TypeID]
			if !ok {
				used = make(map[uint16]bool)
				usedByType[orig.TypeID] = used
			}
			merged := orig
			if used[orig.InstanceID] {
				id := uint16(1)
				for used[id] {
					id++
				}
				merged = vrs.StreamId{TypeID: orig.TypeID, InstanceID: id}
			}
			used[merged.InstanceID] = true

			key := originalKey{readerIndex: ri, original: orig}
			m.mapping[merged] = key
			m.reverse[key] = merged
			m.streamIDs = append(m.streamIDs, merged)
		}
	}
}

// mergeIndex builds the combined, globally sorted view of every open
// file's index, rewriting each entry's StreamId to its merged id for
// ordering purposes (the underlying Reader is dispatched against the
// original entry, which still carries the original id it understands).
func (m *MultiRecordFileReader) mergeIndex() {
	for ri, rd := range m.readers {
		for _, e := range rd.GlobalEntries() {
			merged := m.reverse[originalKey{readerIndex: ri, original: e.StreamId}]
			sortKey := e
			sortKey.StreamId = merged
			m.global = append(m.global, mergedEntry{readerIndex: ri, original: e, sortKey: sortKey})
		}
	}
	sort.Slice(m.global, func(i, j int) bool { return m.global[i].sortKey.Less(m.global[j].sortKey) })
}

// Close closes every underlying file.
func (m *MultiRecordFileReader) Close() error {
	var firstErr error
	for _, rd := range m.readers {
		if err := rd.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StreamIds returns every stream's merged id, in input-file then
// declaration order.
func (m *MultiRecordFileReader) StreamIds() []vrs.StreamId { return m.streamIDs }

// StreamTags returns the tags of the real, underlying stream a merged id
// resolves to, unaffected by any instance-id reassignment.
func (m *MultiRecordFileReader) StreamTags(streamID vrs.StreamId) (vrs.StreamDescription, bool) {
	key, ok := m.mapping[streamID]
	if !ok {
		return vrs.StreamDescription{}, false
	}
	return m.readers[key.readerIndex].StreamTags(key.original)
}

// RecordCount returns the total number of records across every open file.
func (m *MultiRecordFileReader) RecordCount() int { return len(m.global) }

// SetStreamPlayer registers player for streamID (a merged id). Records
// dispatched to it carry streamID in RecordInfo.StreamID, not whatever id
// the stream was originally recorded under.
func (m *MultiRecordFileReader) SetStreamPlayer(streamID vrs.StreamId, player StreamPlayer) {
	key, ok := m.mapping[streamID]
	if !ok {
		return
	}
	if player == nil {
		m.readers[key.readerIndex].SetStreamPlayer(key.original, nil)
		return
	}
	m.readers[key.readerIndex].SetStreamPlayer(key.original, &remappingPlayer{streamID: streamID, inner: player})
}

// GetRecord reads the nth record in the merged, globally sorted order.
func (m *MultiRecordFileReader) GetRecord(nth int) error {
	if nth < 0 || nth >= len(m.global) {
		return fmt.Errorf("%w: merged record index %d out of range (have %d)", vrs.ErrInvalidParameter, nth, len(m.global))
	}
	e := m.global[nth]
	return m.readers[e.readerIndex].DispatchEntry(e.original)
}

// remappingPlayer wraps a caller's StreamPlayer so every RecordInfo it
// sees reports the merged StreamId rather than the id the record was
// dispatched under inside its originating file's own Reader.
type remappingPlayer struct {
	streamID vrs.StreamId
	inner    StreamPlayer
}

func (p *remappingPlayer) ProcessRecordHeader(info RecordInfo) bool {
	info.StreamID = p.streamID
	return p.inner.ProcessRecordHeader(info)
}

func (p *remappingPlayer) ProcessRecord(info RecordInfo, payload []byte) error {
	info.StreamID = p.streamID
	return p.inner.ProcessRecord(info, payload)
}
