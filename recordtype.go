// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "fmt"

// RecordType classifies the purpose of a Record within a stream.
type RecordType uint8

// Record type constants. Declaration order is not the same-timestamp
// tie-break order; Priority defines that (Configuration and State records
// sort ahead of Data records sharing the same timestamp, so a reader
// replaying from any point has decoder state established first).
const (
	RecordTypeUndefined RecordType = iota
	RecordTypeConfiguration
	RecordTypeState
	RecordTypeData
	RecordTypeTags
)

func (t RecordType) String() string {
	switch t {
	case RecordTypeConfiguration:
		return "configuration"
	case RecordTypeState:
		return "state"
	case RecordTypeData:
		return "data"
	case RecordTypeTags:
		return "tags"
	default:
		return fmt.Sprintf("<unrecognized record type %d>", uint8(t))
	}
}

// Priority returns the ordering priority used to break timestamp ties
// within a stream: lower values sort first. Configuration and State
// records are given priority over Data and Tags so a player replaying
// records in file order always sees decoder state before the data that
// depends on it.
func (t RecordType) Priority() int {
	switch t {
	case RecordTypeConfiguration:
		return 0
	case RecordTypeState:
		return 1
	case RecordTypeTags:
		return 2
	case RecordTypeData:
		return 3
	default:
		return 4
	}
}
