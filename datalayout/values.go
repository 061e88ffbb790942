// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

// Value is a typed handle onto a single fixed-size scalar piece.
type Value[T Elementary] struct{ p *Piece }

// AddValue declares a new single-value piece of label in d and returns a
// typed handle to it. d must not yet be frozen.
func AddValue[T Elementary](d *DataLayout, label string) Value[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: elementKindOf[T]()})
	return Value[T]{p: p}
}

// Piece returns the untyped piece backing this handle.
func (v Value[T]) Piece() *Piece { return v.p }

// Get returns the value read from the mapped source, or the staged
// value if this is a destination-only (unmapped) layout, or the default.
func (v Value[T]) Get() T {
	b := v.p.readSourceFixed()
	if len(b) < scalarSize[T]() {
		var zero T
		return zero
	}
	return decodeScalar[T](b)
}

// Stage sets the value to be written when the owning record is created.
func (v Value[T]) Stage(val T) {
	v.p.stagedFixed = encodeScalar(val)
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], v.p.stagedFixed)
	}
}

// SetDefault sets the value returned by Get when the piece is unavailable.
func (v Value[T]) SetDefault(val T) Value[T] {
	v.p.defBytes = encodeScalar(val)
	return v
}

// Array is a typed handle onto a fixed-count array piece.
type Array[T Elementary] struct {
	p     *Piece
	count int
}

// AddArray declares a new fixed-count array piece. Mapping requires an
// exact count match.
func AddArray[T Elementary](d *DataLayout, label string, count int) Array[T] {
	p := d.add(&Piece{label: label, container: ContainerArray, element: elementKindOf[T](), count: count})
	return Array[T]{p: p, count: count}
}

func (a Array[T]) Piece() *Piece { return a.p }

// Get decodes and returns every element of the array.
func (a Array[T]) Get() []T {
	b := a.p.readSourceFixed()
	n := len(b) / scalarSize[T]()
	out := make([]T, n)
	sz := scalarSize[T]()
	for i := 0; i < n; i++ {
		out[i] = decodeScalar[T](b[i*sz : (i+1)*sz])
	}
	return out
}

// Stage sets the array's elements, which must number exactly Count.
func (a Array[T]) Stage(values []T) {
	sz := scalarSize[T]()
	buf := make([]byte, len(values)*sz)
	for i, v := range values {
		copy(buf[i*sz:(i+1)*sz], encodeScalar(v))
	}
	a.p.stagedFixed = buf
	if a.p.layout != nil && a.p.layout.frozen && !a.p.layout.isMappedView {
		copy(a.p.layout.fixedRegion[a.p.fixedOffset:a.p.fixedOffset+a.p.fixedSize()], buf)
	}
}

// Vector is a typed handle onto a variable-length sequence piece.
type Vector[T Elementary] struct{ p *Piece }

// AddVector declares a new variable-length sequence piece.
func AddVector[T Elementary](d *DataLayout, label string) Vector[T] {
	p := d.add(&Piece{label: label, container: ContainerVector, element: elementKindOf[T]()})
	return Vector[T]{p: p}
}

func (v Vector[T]) Piece() *Piece { return v.p }

// Get decodes and returns the vector's elements.
func (v Vector[T]) Get() []T {
	b, ok := v.p.readSourceVariable()
	if !ok {
		return nil
	}
	sz := scalarSize[T]()
	if sz == 0 {
		return nil
	}
	n := len(b) / sz
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = decodeScalar[T](b[i*sz : (i+1)*sz])
	}
	return out
}

// Stage stages the vector's elements for the next record write.
func (v Vector[T]) Stage(values []T) {
	sz := scalarSize[T]()
	buf := make([]byte, len(values)*sz)
	for i, val := range values {
		copy(buf[i*sz:(i+1)*sz], encodeScalar(val))
	}
	v.p.stagedVar = buf
}

// String is a typed handle onto a variable-length string piece.
type String struct{ p *Piece }

// AddString declares a new string piece.
func AddString(d *DataLayout, label string) String {
	p := d.add(&Piece{label: label, container: ContainerVector, element: KindString})
	return String{p: p}
}

func (s String) Piece() *Piece { return s.p }

// Get returns the string read from the layout's variable region (or the
// mapped source's), or the default string when a mapped piece has no
// match. A staged string is visible only after
// CollectVariableDataAndUpdateIndex has packed it.
func (s String) Get() string {
	b, ok := s.p.readSourceVariable()
	if !ok {
		return s.p.defStr
	}
	return string(b)
}

// Stage stages a string value for the next record write.
func (s String) Stage(val string) { s.p.stagedVar = []byte(val) }

// SetDefault sets the string returned by Get when the piece is unavailable.
func (s String) SetDefault(val string) String {
	s.p.defStr = val
	return s
}

// StringMap is a typed handle onto a variable-length string-keyed map
// piece.
type StringMap[T Elementary] struct{ p *Piece }

// AddStringMap declares a new string-keyed map piece.
func AddStringMap[T Elementary](d *DataLayout, label string) StringMap[T] {
	p := d.add(&Piece{label: label, container: ContainerStringMap, element: elementKindOf[T]()})
	return StringMap[T]{p: p}
}

func (m StringMap[T]) Piece() *Piece { return m.p }

// Get decodes and returns the map's entries.
func (m StringMap[T]) Get() map[string]T {
	b, ok := m.p.readSourceVariable()
	if !ok {
		return nil
	}
	return decodeStringMap[T](b)
}

// Stage stages the map's entries for the next record write.
func (m StringMap[T]) Stage(values map[string]T) {
	m.p.stagedMap = make(map[string][]byte, len(values))
	for k, v := range values {
		m.p.stagedMap[k] = encodeScalar(v)
	}
}

func encodeStringMap(staged map[string][]byte) []byte {
	var buf []byte
	putUint32 := func(n int) {
		buf = append(buf, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
	putUint32(len(staged))
	for k, v := range staged {
		putUint32(len(k))
		buf = append(buf, k...)
		putUint32(len(v))
		buf = append(buf, v...)
	}
	return buf
}

func decodeStringMap[T Elementary](b []byte) map[string]T {
	readUint32 := func(off int) (int, bool) {
		if off+4 > len(b) {
			return 0, false
		}
		n := int(b[off]) | int(b[off+1])<<8 | int(b[off+2])<<16 | int(b[off+3])<<24
		return n, true
	}
	off := 0
	count, ok := readUint32(off)
	if !ok {
		return nil
	}
	off += 4
	out := make(map[string]T, count)
	for i := 0; i < count; i++ {
		klen, ok := readUint32(off)
		if !ok {
			return out
		}
		off += 4
		if off+klen > len(b) {
			return out
		}
		key := string(b[off : off+klen])
		off += klen
		vlen, ok := readUint32(off)
		if !ok {
			return out
		}
		off += 4
		if off+vlen > len(b) {
			return out
		}
		out[key] = decodeScalar[T](b[off : off+vlen])
		off += vlen
	}
	return out
}
