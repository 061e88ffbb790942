// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ChecksumSize is the width in bytes of the trailing checksum appended to
// the Description and IndexRecord block payloads.
const ChecksumSize = 8

// Checksum computes the integrity digest stored alongside the Description
// and IndexRecord blocks. It is not a cryptographic hash: it exists to
// detect accidental corruption of a block whose own size field is intact
// but whose payload bytes have been altered.
func Checksum(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// VerifyChecksum reports whether payload matches the previously computed
// digest.
func VerifyChecksum(payload []byte, digest uint64) bool {
	return Checksum(payload) == digest
}

// AppendChecksum returns payload with its little-endian xxhash64 digest
// appended as a trailing 8 bytes.
func AppendChecksum(payload []byte) []byte {
	buf := make([]byte, len(payload)+ChecksumSize)
	copy(buf, payload)
	binary.LittleEndian.PutUint64(buf[len(payload):], Checksum(payload))
	return buf
}

// SplitChecksum separates a block payload written by AppendChecksum back
// into its body and digest, and reports whether the trailing digest
// matches the body. A payload shorter than ChecksumSize is never valid.
func SplitChecksum(payload []byte) (body []byte, ok bool) {
	if len(payload) < ChecksumSize {
		return nil, false
	}
	body = payload[:len(payload)-ChecksumSize]
	digest := binary.LittleEndian.Uint64(payload[len(body):])
	return body, VerifyChecksum(body, digest)
}
