// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

import (
	"encoding/json"
	"fmt"
)

// pieceSchema is the on-disk JSON representation of a single piece,
// deliberately flat (no nested piece-kind polymorphism) so it round
// trips through encoding/json without a custom UnmarshalJSON per kind.
type pieceSchema struct {
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Offset   *int              `json:"offset,omitempty"`
	Index    *int              `json:"index,omitempty"`
	Count    int               `json:"count,omitempty"`
	Default  string            `json:"default,omitempty"`
	Required bool              `json:"required,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Schema is the on-disk JSON representation of an entire DataLayout.
type Schema struct {
	Pieces []pieceSchema `json:"pieces"`
}

// MarshalJSON serializes d's piece schema: label, type name, either fixed
// offset or variable index, default, metadata, and required flag, in
// piece declaration order.
func (d *DataLayout) MarshalJSON() ([]byte, error) {
	if !d.frozen {
		d.Freeze()
	}
	schema := Schema{Pieces: make([]pieceSchema, 0, len(d.pieces))}
	for _, p := range d.pieces {
		ps := pieceSchema{
			Label:    p.label,
			Type:     p.typeName(),
			Required: p.required,
			Metadata: p.metadata,
		}
		switch p.container {
		case ContainerValue, ContainerArray:
			offset := p.fixedOffset
			ps.Offset = &offset
			ps.Count = p.count
			if len(p.defBytes) > 0 {
				ps.Default = fmt.Sprintf("%x", p.defBytes)
			}
		default:
			index := p.varIndex
			ps.Index = &index
			if p.defStr != "" {
				ps.Default = p.defStr
			}
		}
		schema.Pieces = append(schema.Pieces, ps)
	}
	return json.Marshal(schema)
}

// ParseSchema decodes a DataLayout's JSON schema into a source DataLayout
// whose pieces are declared in schema order, with offsets/indices
// recomputed by Freeze from that order (the schema's recorded values are
// overwritten), but no buffer contents yet; call
// LoadFixedRegion/LoadVariableRegion afterward.
func ParseSchema(data []byte) (*DataLayout, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("datalayout: invalid schema json: %w", err)
	}
	d := New()
	for _, ps := range schema.Pieces {
		container, element, count, err := parseTypeName(ps.Type, ps.Count)
		if err != nil {
			return nil, err
		}
		p := &Piece{
			label:     ps.Label,
			container: container,
			element:   element,
			count:     count,
			required:  ps.Required,
			metadata:  ps.Metadata,
			defStr:    ps.Default,
		}
		d.add(p)
		if ps.Offset != nil {
			p.fixedOffset = *ps.Offset
		}
		if ps.Index != nil {
			p.varIndex = *ps.Index
		}
	}
	d.Freeze()
	return d, nil
}

var nameToKind = func() map[string]ElementKind {
	m := make(map[string]ElementKind, len(typeNames))
	for k, v := range typeNames {
		m[v] = k
	}
	return m
}()

// parseTypeName parses a schema type name like "value<uint32_t>",
// "array<float>", "vector<string>", or "string_map<point3df>" into its
// container kind and element kind.
func parseTypeName(typeName string, count int) (ContainerKind, ElementKind, int, error) {
	lt, gt := -1, -1
	for i, r := range typeName {
		if r == '<' {
			lt = i
		}
		if r == '>' {
			gt = i
		}
	}
	if lt < 0 || gt < 0 || gt < lt {
		return 0, 0, 0, fmt.Errorf("datalayout: malformed type name %q", typeName)
	}
	containerName := typeName[:lt]
	elementName := typeName[lt+1 : gt]

	elem, ok := nameToKind[elementName]
	if !ok {
		return 0, 0, 0, fmt.Errorf("datalayout: unknown element type %q", elementName)
	}

	switch containerName {
	case "value":
		return ContainerValue, elem, 0, nil
	case "array":
		return ContainerArray, elem, count, nil
	case "vector":
		return ContainerVector, elem, 0, nil
	case "string_map":
		return ContainerStringMap, elem, 0, nil
	default:
		return 0, 0, 0, fmt.Errorf("datalayout: unknown container kind %q", containerName)
	}
}
