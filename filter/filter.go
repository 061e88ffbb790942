// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package filter implements the stream/time/record-type selection a
// copy pipeline applies while reading one VRS file and writing another.
package filter

import (
	"fmt"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/reader"
)

// TimeAnchor is how a TimeBound's Offset should be interpreted.
type TimeAnchor int

const (
	// Absolute treats Offset as a literal timestamp.
	Absolute TimeAnchor = iota
	// RelativeToStart adds Offset to the file's earliest record timestamp.
	RelativeToStart
	// RelativeToEnd adds Offset to the file's latest record timestamp.
	RelativeToEnd
)

// TimeBound is one endpoint of a time-range filter, either an absolute
// timestamp or an offset from the file's start or end (`--after <sec or
// ±sec>` / `--before <sec or ±sec>`).
type TimeBound struct {
	Anchor TimeAnchor
	Offset float64
}

func (b TimeBound) resolve(fileStart, fileEnd float64) float64 {
	switch b.Anchor {
	case RelativeToStart:
		return fileStart + b.Offset
	case RelativeToEnd:
		return fileEnd + b.Offset
	default:
		return b.Offset
	}
}

// TimeRange bounds which records pass by timestamp: an optional lower
// bound (After), optional upper bound (Before), and an optional
// `--around <center> <window>` band, any combination of which may apply
// together except Around with a *relative* After/Before (see Validate).
type TimeRange struct {
	After        *TimeBound
	Before       *TimeBound
	AroundCenter *TimeBound
	AroundWindow float64
}

// Validate rejects combining --around with a relative --after/--before:
// that combination's semantics are ambiguous, so it is refused outright
// rather than guessing an interaction.
func (r TimeRange) Validate() error {
	if r.AroundCenter == nil {
		return nil
	}
	if r.After != nil && r.After.Anchor != Absolute {
		return fmt.Errorf("%w: --around cannot be combined with a relative --after", vrs.ErrInvalidParameter)
	}
	if r.Before != nil && r.Before.Anchor != Absolute {
		return fmt.Errorf("%w: --around cannot be combined with a relative --before", vrs.ErrInvalidParameter)
	}
	return nil
}

func (r TimeRange) matches(ts, fileStart, fileEnd float64) bool {
	if r.After != nil && ts < r.After.resolve(fileStart, fileEnd) {
		return false
	}
	if r.Before != nil && ts > r.Before.resolve(fileStart, fileEnd) {
		return false
	}
	if r.AroundCenter != nil {
		center := r.AroundCenter.resolve(fileStart, fileEnd)
		if ts < center-r.AroundWindow || ts > center+r.AroundWindow {
			return false
		}
	}
	return true
}

// Filter selects which records a copy pipeline keeps: explicit
// stream/type inclusion and exclusion (`+`/`-  <streamOrType>`), a
// record-type allowlist, and a TimeRange. An empty Filter (the zero
// value) keeps everything.
type Filter struct {
	IncludeStreamIDs map[vrs.StreamId]bool
	ExcludeStreamIDs map[vrs.StreamId]bool
	IncludeTypeIDs   map[uint16]bool
	ExcludeTypeIDs   map[uint16]bool
	RecordTypes      map[vrs.RecordType]bool
	Range            TimeRange
}

// New returns an empty Filter ready for its Include*/Exclude* builders.
func New() *Filter {
	return &Filter{
		IncludeStreamIDs: make(map[vrs.StreamId]bool),
		ExcludeStreamIDs: make(map[vrs.StreamId]bool),
		IncludeTypeIDs:   make(map[uint16]bool),
		ExcludeTypeIDs:   make(map[uint16]bool),
		RecordTypes:      make(map[vrs.RecordType]bool),
	}
}

// IncludeStream adds id to the inclusion set (`+ <typeId>-<instanceId>`).
func (f *Filter) IncludeStream(id vrs.StreamId) *Filter {
	f.IncludeStreamIDs[id] = true
	return f
}

// ExcludeStream adds id to the exclusion set (`- <typeId>-<instanceId>`),
// which always wins over any inclusion rule.
func (f *Filter) ExcludeStream(id vrs.StreamId) *Filter {
	f.ExcludeStreamIDs[id] = true
	return f
}

// IncludeType includes every stream of typeID (`+ <typeId>`).
func (f *Filter) IncludeType(typeID uint16) *Filter {
	f.IncludeTypeIDs[typeID] = true
	return f
}

// ExcludeType excludes every stream of typeID (`- <typeId>`), which
// always wins over any inclusion rule.
func (f *Filter) ExcludeType(typeID uint16) *Filter {
	f.ExcludeTypeIDs[typeID] = true
	return f
}

// IncludeRecordType restricts the filter to the given record types; with
// none added, every record type passes.
func (f *Filter) IncludeRecordType(t vrs.RecordType) *Filter {
	f.RecordTypes[t] = true
	return f
}

// IncludesStream reports whether id passes this filter's stream/type
// inclusion and exclusion rules, independent of time or record type.
// Exported so a copy pipeline can decide which streams need a
// Description entry on the destination file before any record from them
// is actually copied.
func (f *Filter) IncludesStream(id vrs.StreamId) bool {
	if f.ExcludeStreamIDs[id] || f.ExcludeTypeIDs[id.TypeID] {
		return false
	}
	if len(f.IncludeStreamIDs) == 0 && len(f.IncludeTypeIDs) == 0 {
		return true
	}
	return f.IncludeStreamIDs[id] || f.IncludeTypeIDs[id.TypeID]
}

func (f *Filter) includesRecordType(t vrs.RecordType) bool {
	if len(f.RecordTypes) == 0 {
		return true
	}
	return f.RecordTypes[t]
}

// Matches reports whether info passes every rule in f, given the file's
// earliest and latest record timestamps (needed to resolve any
// RelativeToStart/RelativeToEnd TimeBound).
func (f *Filter) Matches(info reader.RecordInfo, fileStart, fileEnd float64) bool {
	if f == nil {
		return true
	}
	if !f.IncludesStream(info.StreamID) {
		return false
	}
	if !f.includesRecordType(info.RecordType) {
		return false
	}
	return f.Range.matches(info.Timestamp, fileStart, fileEnd)
}
