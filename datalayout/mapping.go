// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

// MapLayout maps dst (a destination DataLayout, typically built once in
// code) onto src (a source DataLayout, typically decoded from a record
// just read off disk). Every dst piece whose (label, container kind,
// element kind, count) matches a piece in src is linked to it; reads on
// dst thereafter return src's bytes with no copy. Unmatched pieces
// report IsAvailable() == false and Get() returns their default.
//
// MapLayout mutates dst in place and may be called repeatedly against a
// succession of source layouts (e.g. once per record read), matching the
// real-world usage where a stream player declares its destination
// layouts once and remaps them per record.
//
// It returns false if any piece marked Required failed to match.
func MapLayout(dst, src *DataLayout) bool {
	if dst == nil {
		return false
	}
	if !dst.frozen {
		dst.Freeze()
	}
	dst.isMappedView = true

	ok := true
	for _, p := range dst.pieces {
		p.mapped = nil
		if src == nil {
			if p.required {
				ok = false
			}
			continue
		}
		if m, found := src.byKey[keyOf(p)]; found {
			p.mapped = m
		} else if p.required {
			ok = false
		}
	}
	return ok
}

// Unmap reverts dst to reading its own staged/fixed-region values instead
// of a mapped source, used when a destination layout is reused to build
// new records after having been mapped for reading.
func Unmap(dst *DataLayout) {
	if dst == nil {
		return
	}
	dst.isMappedView = false
	for _, p := range dst.pieces {
		p.mapped = nil
	}
}
