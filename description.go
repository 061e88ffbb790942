// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import "encoding/json"

// StreamDescription is the Description block's per-stream entry: identity,
// flavor, and both tag maps. RecordFormat/DataLayout schemas travel inside
// VrsTags, keyed by the names in tags.go.
type StreamDescription struct {
	TypeID     uint16 `json:"type_id"`
	InstanceID uint16 `json:"instance_id"`
	Flavor     string `json:"flavor,omitempty"`
	UserTags   Tags   `json:"user_tags,omitempty"`
	VrsTags    Tags   `json:"vrs_tags,omitempty"`
}

// StreamId reconstructs the StreamId this description describes.
func (d StreamDescription) StreamId() StreamId {
	return StreamId{TypeID: d.TypeID, InstanceID: d.InstanceID}
}

// Description is the decoded payload of a Description block: file tags
// plus every stream's identity and tags, as persisted once at file-close
// time.
type Description struct {
	FileTags Tags                `json:"file_tags,omitempty"`
	Streams  []StreamDescription `json:"streams,omitempty"`
}

// Marshal encodes the Description as the JSON payload stored in the
// Description block body.
func (d Description) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalDescription decodes a Description block payload.
func UnmarshalDescription(buf []byte) (Description, error) {
	var d Description
	if err := json.Unmarshal(buf, &d); err != nil {
		return Description{}, err
	}
	return d, nil
}
