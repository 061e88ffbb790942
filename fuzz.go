// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

// Fuzz decodes data as a single block header plus Description payload.
// It never panics on malformed input; it returns 1 when decoding succeeds
// so a fuzzing corpus can be seeded with interesting well-formed inputs.
func Fuzz(data []byte) int {
	h, err := UnmarshalBlockHeader(data)
	if err != nil {
		return 0
	}
	if h.Type != BlockTypeDescription {
		return 0
	}
	payload := data[BlockHeaderSize:]
	if uint64(len(payload)) < h.PayloadSize() {
		return 0
	}
	if _, err := UnmarshalDescription(payload[:h.PayloadSize()]); err != nil {
		return 0
	}
	return 1
}
