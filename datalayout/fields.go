// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

// Piece is the untyped, runtime representation of a single named field
// in a DataLayout. The typed wrappers below (Value, Array, Vector,
// String, StringMap) are thin, compile-time-checked handles onto a
// *Piece; all actual storage and mapping state lives here.
type Piece struct {
	label     string
	container ContainerKind
	element   ElementKind
	count     int // element count for a fixed Array; 0 for Value/Vector/String/StringMap
	required  bool
	metadata  map[string]string
	defBytes  []byte // raw encoded default, fixed-size pieces only
	defStr    string // default string value, for String/StringMap pieces

	layout *DataLayout // owning layout, set once added
	index  int         // position in layout.pieces

	fixedOffset int // byte offset into layout's fixed region, if applicable
	varIndex    int // index into layout's variable-blob table, if applicable

	stagedFixed []byte            // staged fixed-region bytes, pre-collection
	stagedVar   []byte            // staged variable-region bytes (vector/string), pre-collection
	stagedMap   map[string][]byte // staged string_map entries, pre-collection

	mapped *Piece // counterpart in a source layout, set by MapLayout; nil if unmapped
}

// Label returns the piece's field name.
func (p *Piece) Label() string { return p.label }

// Container returns how the piece's element(s) are packed.
func (p *Piece) Container() ContainerKind { return p.container }

// Element returns the piece's element kind.
func (p *Piece) Element() ElementKind { return p.element }

// Count returns the fixed element count for an Array piece, or 0.
func (p *Piece) Count() int { return p.count }

// Required reports whether mapping must find a matching source piece.
func (p *Piece) Required() bool { return p.required }

// SetRequired marks the piece as required for a successful mapping.
func (p *Piece) SetRequired(required bool) *Piece {
	p.required = required
	return p
}

// Metadata returns the piece's key/value metadata (unit, description,
// min/max value, min/max increment, etc.).
func (p *Piece) Metadata() map[string]string { return p.metadata }

// SetMetadata sets a single metadata key.
func (p *Piece) SetMetadata(key, value string) *Piece {
	if p.metadata == nil {
		p.metadata = make(map[string]string)
	}
	p.metadata[key] = value
	return p
}

// IsAvailable reports whether a value can be read for this piece: either
// it has no source mapping yet (the layout was built in code, not read
// from disk) or it was successfully matched by MapLayout.
func (p *Piece) IsAvailable() bool {
	if p.layout == nil || !p.layout.isMappedView {
		return true
	}
	return p.mapped != nil
}

// typeName returns the JSON schema type name for this piece, e.g.
// "value<uint32_t>", "vector<string>", "string_map<point3df>".
func (p *Piece) typeName() string {
	elem := p.element.String()
	if p.container == ContainerStringMap {
		return "string_map<" + elem + ">"
	}
	if p.container == ContainerArray {
		return "array<" + elem + ">"
	}
	if p.container == ContainerVector {
		return "vector<" + elem + ">"
	}
	return p.container.String() + "<" + elem + ">"
}

// fixedSize returns the number of bytes this piece occupies in the fixed
// region: ElementSize * Count for Array, ElementSize for Value, and 0 for
// Vector/String/StringMap (those live entirely in the variable region).
func (p *Piece) fixedSize() int {
	switch p.container {
	case ContainerValue:
		return ElementSize(p.element)
	case ContainerArray:
		return ElementSize(p.element) * p.count
	default:
		return 0
	}
}

// readSourceFixed returns the matched source piece's fixed-region bytes,
// or p's own staged/default bytes if unmapped, for a Value/Array read.
func (p *Piece) readSourceFixed() []byte {
	src := p
	if p.layout != nil && p.layout.isMappedView {
		if p.mapped == nil {
			return p.defBytes
		}
		src = p.mapped
	}
	if src.layout == nil {
		return src.stagedFixed
	}
	return src.layout.fixedRegion[src.fixedOffset : src.fixedOffset+src.fixedSize()]
}

// readSourceVariable returns the variable-region bytes of the matched
// source piece (for a mapped view) or of p's own layout; only a piece not
// yet added to a layout returns its staged bytes. It reports false for a
// mapped-view piece with no match.
func (p *Piece) readSourceVariable() ([]byte, bool) {
	src := p
	if p.layout != nil && p.layout.isMappedView {
		if p.mapped == nil {
			return nil, false
		}
		src = p.mapped
	}
	if src.layout == nil {
		return src.stagedVar, true
	}
	return src.layout.variableBlob(src.varIndex), true
}

// AsUint32 reads this piece's value as a uint32, for callers that only
// know a piece's label and not its compile-time type (e.g. a stream
// player resolving an image block's size from a same-record
// DataLayout's conventionally-named fields). It accepts any integer
// ContainerValue kind narrow enough to fit, and reports false for any
// other container or element kind.
func (p *Piece) AsUint32() (uint32, bool) {
	if p.container != ContainerValue {
		return 0, false
	}
	b := p.readSourceFixed()
	switch p.element {
	case KindUint8:
		return uint32(decodeScalar[uint8](b)), len(b) >= 1
	case KindUint16:
		return uint32(decodeScalar[uint16](b)), len(b) >= 2
	case KindUint32:
		return decodeScalar[uint32](b), len(b) >= 4
	case KindInt8:
		return uint32(decodeScalar[int8](b)), len(b) >= 1
	case KindInt16:
		return uint32(decodeScalar[int16](b)), len(b) >= 2
	case KindInt32:
		return uint32(decodeScalar[int32](b)), len(b) >= 4
	default:
		return 0, false
	}
}

// AsString reads this piece's value as a string, for the same
// label-only lookup use case as AsUint32.
func (p *Piece) AsString() (string, bool) {
	if p.element != KindString {
		return "", false
	}
	b, ok := p.readSourceVariable()
	if !ok {
		return "", false
	}
	return string(b), true
}
