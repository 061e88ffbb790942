// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "fmt"

// Tags is a free-form (name, value) string map attached to a file or a
// stream. VRS-internal tags (RecordFormat and DataLayout schemas) share
// this same map, keyed with deterministic names.
type Tags map[string]string

// Clone returns an independent copy of the tag map.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// RecordFormatTagName returns the deterministic VRS tag name under which a
// stream's RecordFormat text is persisted: "RF:<RecordType>:<formatVersion>".
func RecordFormatTagName(recordType RecordType, formatVersion uint32) string {
	return fmt.Sprintf("RF:%s:%d", recordType, formatVersion)
}

// DataLayoutTagName returns the deterministic VRS tag name under which a
// content block's DataLayout JSON schema is persisted:
// "DL:<RecordType>:<formatVersion>:<blockIndex>".
func DataLayoutTagName(recordType RecordType, formatVersion uint32, blockIndex int) string {
	return fmt.Sprintf("DL:%s:%d:%d", recordType, formatVersion, blockIndex)
}

// RelatedFileTagNames is the reserved set of file tags MultiRecordFileReader
// compares to decide whether a set of files are "related".
var RelatedFileTagNames = []string{"session_id"}
