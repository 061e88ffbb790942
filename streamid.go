// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamId uniquely identifies a stream within a file: a 16-bit category
// (TypeID) and a 16-bit unique-within-file instance (InstanceID).
// InstanceID must be > 0 for any valid stream.
type StreamId struct {
	TypeID     uint16
	InstanceID uint16
}

// String renders the StreamId in its textual "T-I" form.
func (id StreamId) String() string {
	return fmt.Sprintf("%d-%d", id.TypeID, id.InstanceID)
}

// IsValid reports whether the StreamId could identify a real stream.
func (id StreamId) IsValid() bool {
	return id.InstanceID > 0
}

// Pack encodes the StreamId into the 32-bit on-disk form (TypeID in the
// high 16 bits, InstanceID in the low 16 bits).
func (id StreamId) Pack() uint32 {
	return uint32(id.TypeID)<<16 | uint32(id.InstanceID)
}

// UnpackStreamId decodes a StreamId from its 32-bit on-disk form.
func UnpackStreamId(v uint32) StreamId {
	return StreamId{TypeID: uint16(v >> 16), InstanceID: uint16(v & 0xffff)}
}

// ParseStreamId parses the textual "T-I" form back into a StreamId.
func ParseStreamId(s string) (StreamId, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return StreamId{}, fmt.Errorf("%w: malformed stream id %q", ErrInvalidParameter, s)
	}
	t, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return StreamId{}, fmt.Errorf("%w: malformed stream id %q", ErrInvalidParameter, s)
	}
	i, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return StreamId{}, fmt.Errorf("%w: malformed stream id %q", ErrInvalidParameter, s)
	}
	return StreamId{TypeID: uint16(t), InstanceID: uint16(i)}, nil
}

// Less orders StreamIds by (TypeID, InstanceID), used when a deterministic
// tie-break on stream identity is required (e.g. multi-reader merges).
func (id StreamId) Less(other StreamId) bool {
	if id.TypeID != other.TypeID {
		return id.TypeID < other.TypeID
	}
	return id.InstanceID < other.InstanceID
}
