// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

func pointKind[T Numeric](dim int) ElementKind {
	var zero T
	switch any(zero).(type) {
	case int32:
		switch dim {
		case 2:
			return KindPoint2I
		case 3:
			return KindPoint3I
		default:
			return KindPoint4I
		}
	case float32:
		switch dim {
		case 2:
			return KindPoint2F
		case 3:
			return KindPoint3F
		default:
			return KindPoint4F
		}
	default:
		switch dim {
		case 2:
			return KindPoint2D
		case 3:
			return KindPoint3D
		default:
			return KindPoint4D
		}
	}
}

func matrixKind[T Numeric](dim int) ElementKind {
	var zero T
	switch any(zero).(type) {
	case int32:
		switch dim {
		case 2:
			return KindMatrix2I
		case 3:
			return KindMatrix3I
		default:
			return KindMatrix4I
		}
	case float32:
		switch dim {
		case 2:
			return KindMatrix2F
		case 3:
			return KindMatrix3F
		default:
			return KindMatrix4F
		}
	default:
		switch dim {
		case 2:
			return KindMatrix2D
		case 3:
			return KindMatrix3D
		default:
			return KindMatrix4D
		}
	}
}

func flattenPoint[T Numeric](v []T) []byte {
	sz := scalarSize[T]()
	buf := make([]byte, len(v)*sz)
	for i, x := range v {
		copy(buf[i*sz:(i+1)*sz], encodeScalar(x))
	}
	return buf
}

func unflattenPoint[T Numeric](b []byte, dim int) []T {
	sz := scalarSize[T]()
	out := make([]T, dim)
	for i := 0; i < dim && (i+1)*sz <= len(b); i++ {
		out[i] = decodeScalar[T](b[i*sz : (i+1)*sz])
	}
	return out
}

// Point2Piece, Point3Piece, Point4Piece are typed handles onto fixed-
// dimension point pieces.
type Point2Piece[T Numeric] struct{ p *Piece }
type Point3Piece[T Numeric] struct{ p *Piece }
type Point4Piece[T Numeric] struct{ p *Piece }

// AddPoint2 declares a new 2D point piece.
func AddPoint2[T Numeric](d *DataLayout, label string) Point2Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: pointKind[T](2)})
	return Point2Piece[T]{p: p}
}

// AddPoint3 declares a new 3D point piece.
func AddPoint3[T Numeric](d *DataLayout, label string) Point3Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: pointKind[T](3)})
	return Point3Piece[T]{p: p}
}

// AddPoint4 declares a new 4D point piece.
func AddPoint4[T Numeric](d *DataLayout, label string) Point4Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: pointKind[T](4)})
	return Point4Piece[T]{p: p}
}

func (v Point2Piece[T]) Piece() *Piece { return v.p }
func (v Point2Piece[T]) Get() Point2[T] {
	c := unflattenPoint[T](v.p.readSourceFixed(), 2)
	return Point2[T]{c[0], c[1]}
}
func (v Point2Piece[T]) Stage(val Point2[T]) { v.stage(flattenPoint[T](val[:])) }
func (v Point2Piece[T]) stage(buf []byte) {
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}

func (v Point3Piece[T]) Piece() *Piece { return v.p }
func (v Point3Piece[T]) Get() Point3[T] {
	c := unflattenPoint[T](v.p.readSourceFixed(), 3)
	return Point3[T]{c[0], c[1], c[2]}
}
func (v Point3Piece[T]) Stage(val Point3[T]) {
	buf := flattenPoint[T](val[:])
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}

func (v Point4Piece[T]) Piece() *Piece { return v.p }
func (v Point4Piece[T]) Get() Point4[T] {
	c := unflattenPoint[T](v.p.readSourceFixed(), 4)
	return Point4[T]{c[0], c[1], c[2], c[3]}
}
func (v Point4Piece[T]) Stage(val Point4[T]) {
	buf := flattenPoint[T](val[:])
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}

// Matrix2Piece, Matrix3Piece, Matrix4Piece are typed handles onto fixed-
// dimension square matrix pieces, stored row-major.
type Matrix2Piece[T Numeric] struct{ p *Piece }
type Matrix3Piece[T Numeric] struct{ p *Piece }
type Matrix4Piece[T Numeric] struct{ p *Piece }

// AddMatrix2 declares a new 2x2 matrix piece.
func AddMatrix2[T Numeric](d *DataLayout, label string) Matrix2Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: matrixKind[T](2)})
	return Matrix2Piece[T]{p: p}
}

// AddMatrix3 declares a new 3x3 matrix piece.
func AddMatrix3[T Numeric](d *DataLayout, label string) Matrix3Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: matrixKind[T](3)})
	return Matrix3Piece[T]{p: p}
}

// AddMatrix4 declares a new 4x4 matrix piece.
func AddMatrix4[T Numeric](d *DataLayout, label string) Matrix4Piece[T] {
	p := d.add(&Piece{label: label, container: ContainerValue, element: matrixKind[T](4)})
	return Matrix4Piece[T]{p: p}
}

func flattenMatrix[T Numeric](rows [][]T, dim int) []byte {
	flat := make([]T, 0, dim*dim)
	for i := 0; i < dim; i++ {
		flat = append(flat, rows[i]...)
	}
	return flattenPoint[T](flat)
}

func unflattenMatrix[T Numeric](b []byte, dim int) []T {
	return unflattenPoint[T](b, dim*dim)
}

func (v Matrix2Piece[T]) Piece() *Piece { return v.p }
func (v Matrix2Piece[T]) Get() Matrix2[T] {
	flat := unflattenMatrix[T](v.p.readSourceFixed(), 2)
	var m Matrix2[T]
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m[i][j] = flat[i*2+j]
		}
	}
	return m
}
func (v Matrix2Piece[T]) Stage(val Matrix2[T]) {
	buf := flattenMatrix[T]([][]T{val[0][:], val[1][:]}, 2)
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}

func (v Matrix3Piece[T]) Piece() *Piece { return v.p }
func (v Matrix3Piece[T]) Get() Matrix3[T] {
	flat := unflattenMatrix[T](v.p.readSourceFixed(), 3)
	var m Matrix3[T]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = flat[i*3+j]
		}
	}
	return m
}
func (v Matrix3Piece[T]) Stage(val Matrix3[T]) {
	buf := flattenMatrix[T]([][]T{val[0][:], val[1][:], val[2][:]}, 3)
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}

func (v Matrix4Piece[T]) Piece() *Piece { return v.p }
func (v Matrix4Piece[T]) Get() Matrix4[T] {
	flat := unflattenMatrix[T](v.p.readSourceFixed(), 4)
	var m Matrix4[T]
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = flat[i*4+j]
		}
	}
	return m
}
func (v Matrix4Piece[T]) Stage(val Matrix4[T]) {
	buf := flattenMatrix[T]([][]T{val[0][:], val[1][:], val[2][:], val[3][:]}, 4)
	v.p.stagedFixed = buf
	if v.p.layout != nil && v.p.layout.frozen && !v.p.layout.isMappedView {
		copy(v.p.layout.fixedRegion[v.p.fixedOffset:v.p.fixedOffset+v.p.fixedSize()], buf)
	}
}
