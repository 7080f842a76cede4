// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package docmap converts JSON documents to and from a flat, ordered list
// of addressable leaf entries.
//
// The flat map is the substrate both the change-proposal step and the patch
// engine operate on: every scalar leaf of a document becomes one MapEntry
// with a stable id, a root-to-leaf path, and a string rendering of the
// value. Composite nodes (objects, arrays) are never entries themselves;
// they survive as the document "shape" used during reconstruction.
//
// # Determinism
//
// Encode traverses objects in sorted key order and arrays in index order,
// so the same document tree always yields the same entry ids and ordering.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package docmap

import "errors"

// Sentinel errors for codec operations.
var (
	// ErrDocumentTooDeep is returned when a document nests beyond the
	// configured depth limit. Checked before traversal begins.
	ErrDocumentTooDeep = errors.New("document exceeds maximum nesting depth")

	// ErrDocumentTooLarge is returned when a document's serialized size
	// exceeds the configured byte limit. Checked before traversal begins.
	ErrDocumentTooLarge = errors.New("document exceeds maximum serialized size")

	// ErrReconstruction is returned when a map entry cannot be written back
	// into the document shape: the path is absent, or the value cannot be
	// coerced to the leaf's original type.
	ErrReconstruction = errors.New("document reconstruction failed")

	// ErrInvalidDocument is returned when the input is not a parseable
	// JSON value.
	ErrInvalidDocument = errors.New("invalid JSON document")
)
