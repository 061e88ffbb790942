// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package chunkio

import "unsafe"

// uintptrOf returns the starting address of b's backing array, used only
// to compute alignment padding in alignedBuffer. This never dereferences
// the pointer as a typed value; it's purely an address computation,
// consistent with the "never reinterpret a byte pointer as a typed
// pointer" rule applied elsewhere to on-disk data (see vrs.ReadUint32 and
// friends).
func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
