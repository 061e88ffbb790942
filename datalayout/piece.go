// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package datalayout implements the typed, self-describing field schema
// (DataLayout/DataPiece) used to encode configuration, state, and per-
// record data. A DataLayout's piece set is frozen at construction; every
// piece's element kind and container shape come from a small, closed set
// known at compile time, so dispatch here is an exhaustive switch over a
// tagged enum rather than interface-table dispatch (see DESIGN.md's note
// on replacing virtual calls with sealed kinds).
package datalayout

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ElementKind identifies the scalar or fixed-shape element type a piece's
// container holds.
type ElementKind int

const (
	KindInt8 ElementKind = iota
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindPoint2I
	KindPoint3I
	KindPoint4I
	KindPoint2F
	KindPoint3F
	KindPoint4F
	KindPoint2D
	KindPoint3D
	KindPoint4D
	KindMatrix2I
	KindMatrix3I
	KindMatrix4I
	KindMatrix2F
	KindMatrix3F
	KindMatrix4F
	KindMatrix2D
	KindMatrix3D
	KindMatrix4D
	KindString
)

// typeNames gives the wire/JSON type name for each ElementKind, matching
// the original format's "value<uint32_t>"-style naming.
var typeNames = map[ElementKind]string{
	KindInt8:     "int8_t",
	KindUint8:    "uint8_t",
	KindInt16:    "int16_t",
	KindUint16:   "uint16_t",
	KindInt32:    "int32_t",
	KindUint32:   "uint32_t",
	KindInt64:    "int64_t",
	KindUint64:   "uint64_t",
	KindFloat32:  "float",
	KindFloat64:  "double",
	KindBool:     "Bool",
	KindPoint2I:  "point2di",
	KindPoint3I:  "point3di",
	KindPoint4I:  "point4di",
	KindPoint2F:  "point2df",
	KindPoint3F:  "point3df",
	KindPoint4F:  "point4df",
	KindPoint2D:  "point2dd",
	KindPoint3D:  "point3dd",
	KindPoint4D:  "point4dd",
	KindMatrix2I: "matrix2di",
	KindMatrix3I: "matrix3di",
	KindMatrix4I: "matrix4di",
	KindMatrix2F: "matrix2df",
	KindMatrix3F: "matrix3df",
	KindMatrix4F: "matrix4df",
	KindMatrix2D: "matrix2dd",
	KindMatrix3D: "matrix3dd",
	KindMatrix4D: "matrix4dd",
	KindString:   "string",
}

func (k ElementKind) String() string {
	if s, ok := typeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// elementSizes gives the fixed, packed byte size of every ElementKind
// except KindString, which has no fixed size.
var elementSizes = map[ElementKind]int{
	KindInt8: 1, KindUint8: 1, KindBool: 1,
	KindInt16: 2, KindUint16: 2,
	KindInt32: 4, KindUint32: 4, KindFloat32: 4,
	KindInt64: 8, KindUint64: 8, KindFloat64: 8,
	KindPoint2I: 8, KindPoint2F: 8,
	KindPoint3I: 12, KindPoint3F: 12,
	KindPoint4I: 16, KindPoint4F: 16,
	KindPoint2D: 16,
	KindPoint3D: 24,
	KindPoint4D: 32,
	KindMatrix2I: 16, KindMatrix2F: 16,
	KindMatrix3I: 36, KindMatrix3F: 36,
	KindMatrix4I: 64, KindMatrix4F: 64,
	KindMatrix2D: 32,
	KindMatrix3D: 72,
	KindMatrix4D: 128,
}

// ElementSize returns the packed byte size of a single value of kind k, or
// 0 for KindString, which has no fixed size.
func ElementSize(k ElementKind) int { return elementSizes[k] }

// ContainerKind identifies how a piece's element(s) are packed: a single
// fixed-size value, a fixed-size array of N elements, a length-prefixed
// variable-size vector of elements (a string is a vector of KindString),
// or a string-keyed map of elements.
type ContainerKind int

const (
	ContainerValue ContainerKind = iota
	ContainerArray
	ContainerVector
	ContainerStringMap
)

func (c ContainerKind) String() string {
	switch c {
	case ContainerValue:
		return "value"
	case ContainerArray:
		return "array"
	case ContainerVector:
		return "vector"
	case ContainerStringMap:
		return "string_map"
	default:
		return "unknown"
	}
}

// Elementary is the sealed set of scalar Go types a Value/Array/Vector
// piece may hold.
type Elementary interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64 | ~bool
}

// Numeric is the sealed set of component types for Point/Matrix shapes.
type Numeric interface {
	~int32 | ~float32 | ~float64
}

// Point2, Point3, Point4 are fixed-dimension points over a numeric
// component type, laid out as dense arrays (no padding), matching
// PointND's packed storage.
type Point2[T Numeric] [2]T
type Point3[T Numeric] [3]T
type Point4[T Numeric] [4]T

// Matrix2, Matrix3, Matrix4 are fixed-dimension square matrices, stored
// row-major and densely packed, matching MatrixND's packed storage.
type Matrix2[T Numeric] [2][2]T
type Matrix3[T Numeric] [3][3]T
type Matrix4[T Numeric] [4][4]T

func encodeScalar[T Elementary](v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return []byte{byte(x)}
	case uint8:
		return []byte{x}
	case int16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(x))
		return b
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, x)
		return b
	case int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(x))
		return b
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, x)
		return b
	case int64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(x))
		return b
	case uint64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, x)
		return b
	case float32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
		return b
	case float64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
		return b
	case bool:
		if x {
			return []byte{1}
		}
		return []byte{0}
	default:
		return nil
	}
}

func decodeScalar[T Elementary](b []byte) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(b[0])).(T)
	case uint8:
		return any(b[0]).(T)
	case int16:
		return any(int16(binary.LittleEndian.Uint16(b))).(T)
	case uint16:
		return any(binary.LittleEndian.Uint16(b)).(T)
	case int32:
		return any(int32(binary.LittleEndian.Uint32(b))).(T)
	case uint32:
		return any(binary.LittleEndian.Uint32(b)).(T)
	case int64:
		return any(int64(binary.LittleEndian.Uint64(b))).(T)
	case uint64:
		return any(binary.LittleEndian.Uint64(b)).(T)
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(b))).(T)
	case float64:
		return any(math.Float64frombits(binary.LittleEndian.Uint64(b))).(T)
	case bool:
		return any(b[0] != 0).(T)
	default:
		return zero
	}
}

func scalarSize[T Elementary]() int {
	var zero T
	switch any(zero).(type) {
	case int8, uint8, bool:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	default:
		return 0
	}
}

func elementKindOf[T Elementary]() ElementKind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return KindInt8
	case uint8:
		return KindUint8
	case int16:
		return KindInt16
	case uint16:
		return KindUint16
	case int32:
		return KindInt32
	case uint32:
		return KindUint32
	case int64:
		return KindInt64
	case uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case bool:
		return KindBool
	default:
		panic("datalayout: unsupported scalar type")
	}
}
