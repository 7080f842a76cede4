// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package docmap

import "strings"

// TypeHint records the original JSON type of a leaf so its string value
// can be coerced back on reconstruction.
type TypeHint string

const (
	TypeString  TypeHint = "string"
	TypeNumber  TypeHint = "number"
	TypeBoolean TypeHint = "boolean"
	TypeNull    TypeHint = "null"
)

// MapEntry is one addressable scalar leaf inside a document.
//
// Ids are assigned by pre-order traversal ("t0", "t1", ...) and are stable
// across round trips of the same document tree shape. Path segments are
// object keys, or decimal strings for array indices.
type MapEntry struct {
	ID       string   `json:"id"`
	Path     []string `json:"path"`
	Value    string   `json:"value"`
	TypeHint TypeHint `json:"type_hint"`
}

// PathKey returns a collision-free string form of a path, usable as a map
// key. Segments are joined with the unit separator so object keys that
// contain "/" or "." stay unambiguous.
func PathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// Limits bounds document size before encoding.
type Limits struct {
	// MaxDepth is the maximum allowed nesting depth. The root counts as
	// depth 1.
	MaxDepth int

	// MaxBytes is the maximum allowed serialized size of the document.
	MaxBytes int
}

// DefaultLimits returns the production guardrails: 64 levels of nesting
// and 5 MiB of serialized JSON.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth: 64,
		MaxBytes: 5 << 20,
	}
}
