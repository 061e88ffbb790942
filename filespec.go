// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// FileSpec describes where a VRS file's bytes live: a local path, a JSON
// chunk description, or a scheme:opaque?k=v URI naming an external
// file-handler plugin (out of scope here; only the parsed shape is kept
// so a caller-supplied handler can consume it).
type FileSpec struct {
	// FileName is the local path form, set when Chunks/Scheme are empty.
	FileName string

	// Chunks lists explicit chunk file names, in order, for the JSON
	// chunk-description form.
	Chunks []string
	// ChunkSizes gives the size in bytes of each entry in Chunks, when
	// known; a 0 or absent entry means "rest of file" (only valid for
	// the last chunk).
	ChunkSizes []int64
	// Storage names the storage backend for the JSON form (e.g. "disk").
	Storage string
	// SourceURI is an opaque locator handed to an external file handler.
	SourceURI string

	// Scheme is the URI scheme naming an external file-handler plugin,
	// set when the path was of the form "<scheme>:<opaque>?k=v&...".
	Scheme string
	// Opaque is the scheme-specific part of a URI-form path.
	Opaque string
	// Extras holds the URI's query parameters.
	Extras map[string]string
}

// chunkSpecJSON mirrors the JSON object form of a FileSpec.
type chunkSpecJSON struct {
	Chunks     []string `json:"chunks,omitempty"`
	ChunkSizes []int64  `json:"chunk_sizes,omitempty"`
	Storage    string   `json:"storage,omitempty"`
	FileName   string   `json:"filename,omitempty"`
	SourceURI  string   `json:"source_uri,omitempty"`
}

// ParsePath interprets a path string as one of three FileSpec forms: a
// JSON object, a "<scheme>:<opaque>?k=v" URI, or a plain local filesystem
// path.
func ParsePath(path string) (FileSpec, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "{") {
		var j chunkSpecJSON
		if err := json.Unmarshal([]byte(trimmed), &j); err != nil {
			return FileSpec{}, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		return FileSpec{
			Chunks:     j.Chunks,
			ChunkSizes: j.ChunkSizes,
			Storage:    j.Storage,
			FileName:   j.FileName,
			SourceURI:  j.SourceURI,
		}, nil
	}

	if idx := strings.Index(trimmed, ":"); idx > 1 && isSchemeLike(trimmed[:idx]) {
		u, err := url.Parse(trimmed)
		if err == nil && u.Scheme != "" {
			extras := map[string]string{}
			for k, vs := range u.Query() {
				if len(vs) > 0 {
					extras[k] = vs[0]
				}
			}
			return FileSpec{
				Scheme: u.Scheme,
				Opaque: u.Opaque,
				Extras: extras,
			}, nil
		}
	}

	return FileSpec{FileName: trimmed}, nil
}

// isSchemeLike reports whether s could be a URI scheme: letters, digits,
// '+', '-', '.', starting with a letter. This excludes Windows drive
// letters like "C:" from being mistaken for a scheme.
func isSchemeLike(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		switch {
		case i == 0 && !isAlpha:
			return false
		case !isAlpha && !isDigit && r != '+' && r != '-' && r != '.':
			return false
		}
	}
	return true
}

// IsChunked reports whether the FileSpec names an explicit multi-chunk
// layout rather than a single local file.
func (f FileSpec) IsChunked() bool {
	return len(f.Chunks) > 0
}

// IsExternal reports whether the FileSpec names an external file-handler
// plugin via a URI scheme.
func (f FileSpec) IsExternal() bool {
	return f.Scheme != ""
}
