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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseDocument decodes raw JSON into the tree representation the codec
// operates on: map[string]any, []any, string, json.Number, bool, nil.
//
// Numbers are preserved as json.Number so that encode/decode round trips
// keep the exact literal (no float64 precision loss).
func ParseDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidDocument)
	}
	return doc, nil
}

// Encode converts a document into its flat map of scalar leaves.
//
// # Description
//
// Performs a deterministic pre-order traversal: object keys in sorted
// order, array elements in index order. Only scalar leaves produce
// entries; a document with no leaves yields an empty slice.
//
// Guardrails run before traversal so failures are fast and never partial:
// depth above limits.MaxDepth returns ErrDocumentTooDeep, serialized size
// above limits.MaxBytes returns ErrDocumentTooLarge.
//
// # Inputs
//
//   - doc: document tree as produced by ParseDocument.
//   - limits: size guardrails; zero values mean DefaultLimits.
//
// # Outputs
//
//   - []MapEntry: one entry per scalar leaf, ids "t0", "t1", ... in
//     traversal order.
//   - error: guardrail violation or non-serializable input.
func Encode(doc any, limits Limits) ([]MapEntry, error) {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultLimits().MaxDepth
	}
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultLimits().MaxBytes
	}

	serialized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(serialized) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)",
			ErrDocumentTooLarge, len(serialized), limits.MaxBytes)
	}
	if d := depth(doc); d > limits.MaxDepth {
		return nil, fmt.Errorf("%w: depth %d (limit %d)",
			ErrDocumentTooDeep, d, limits.MaxDepth)
	}

	var (
		entries []MapEntry
		counter int
	)
	var walk func(node any, path []string)
	walk = func(node any, path []string) {
		switch v := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(v[k], append(path, k))
			}
		case []any:
			for i, item := range v {
				walk(item, append(path, strconv.Itoa(i)))
			}
		default:
			value, hint := renderLeaf(v)
			entries = append(entries, MapEntry{
				ID:       fmt.Sprintf("t%d", counter),
				Path:     append([]string(nil), path...),
				Value:    value,
				TypeHint: hint,
			})
			counter++
		}
	}
	walk(doc, nil)

	return entries, nil
}

// Decode reconstructs a document from its shape and a set of entries.
//
// # Description
//
// Deep-copies the shape (the original composite skeleton), then writes
// each entry's current value back at its path, coerced to the entry's
// original type via TypeHint. The shape is never mutated.
//
// # Outputs
//
//   - any: the reconstructed document tree.
//   - error: ErrReconstruction if an entry's path is absent from the shape
//     or its value cannot be coerced to the hinted type.
func Decode(shape any, entries []MapEntry) (any, error) {
	doc := clone(shape)

	for _, entry := range entries {
		value, err := Coerce(entry.Value, entry.TypeHint)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s at %s: %v",
				ErrReconstruction, entry.ID, pathString(entry.Path), err)
		}
		// A scalar root flattens to a single entry with an empty path:
		// the document itself is the leaf, so there is no container to
		// write into.
		if len(entry.Path) == 0 {
			switch doc.(type) {
			case map[string]any, []any:
				return nil, fmt.Errorf("%w: entry %s: empty path addresses a container root",
					ErrReconstruction, entry.ID)
			}
			doc = value
			continue
		}
		if err := setAtPath(doc, entry.Path, value); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v",
				ErrReconstruction, entry.ID, err)
		}
	}
	return doc, nil
}

// Coerce converts a string value back to the JSON type named by hint.
//
// A value that does not parse as the hinted type is an error, never a
// silent fallback to string. Null leaves only accept the literal "null".
func Coerce(value string, hint TypeHint) (any, error) {
	switch hint {
	case TypeString:
		return value, nil
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return nil, fmt.Errorf("%q is not a valid number", value)
		}
		return json.Number(value), nil
	case TypeBoolean:
		switch value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a valid boolean", value)
	case TypeNull:
		if value != "null" {
			return nil, fmt.Errorf("%q is not null", value)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown type hint %q", hint)
	}
}

// renderLeaf maps a scalar node to its string value and type hint.
func renderLeaf(node any) (string, TypeHint) {
	switch v := node.(type) {
	case string:
		return v, TypeString
	case json.Number:
		return v.String(), TypeNumber
	case float64:
		// Documents decoded without UseNumber arrive as float64.
		return strconv.FormatFloat(v, 'g', -1, 64), TypeNumber
	case bool:
		return strconv.FormatBool(v), TypeBoolean
	case nil:
		return "null", TypeNull
	default:
		// Unreachable for trees produced by ParseDocument.
		return fmt.Sprintf("%v", v), TypeString
	}
}

// depth returns the nesting depth of a tree. Scalars have depth 1.
func depth(node any) int {
	max := 1
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			if d := depth(child) + 1; d > max {
				max = d
			}
		}
	case []any:
		for _, child := range v {
			if d := depth(child) + 1; d > max {
				max = d
			}
		}
	}
	return max
}

// clone deep-copies a document tree.
func clone(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = clone(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = clone(child)
		}
		return out
	default:
		return v
	}
}

// setAtPath writes value at path inside doc. The final segment's parent
// must already exist in the shape; paths never create structure.
func setAtPath(doc any, path []string, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}

	walk := doc
	for _, step := range path[:len(path)-1] {
		next, err := child(walk, step)
		if err != nil {
			return fmt.Errorf("path %s: %v", pathString(path), err)
		}
		walk = next
	}

	last := path[len(path)-1]
	switch parent := walk.(type) {
	case map[string]any:
		if _, ok := parent[last]; !ok {
			return fmt.Errorf("path %s: key %q not found", pathString(path), last)
		}
		parent[last] = value
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(parent) {
			return fmt.Errorf("path %s: index %q out of range", pathString(path), last)
		}
		parent[idx] = value
	default:
		return fmt.Errorf("path %s: parent is not a container", pathString(path))
	}
	return nil
}

// child resolves one path segment against a container node.
func child(node any, step string) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		c, ok := v[step]
		if !ok {
			return nil, fmt.Errorf("key %q not found", step)
		}
		return c, nil
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("index %q out of range", step)
		}
		return v[idx], nil
	default:
		return nil, fmt.Errorf("segment %q addresses a scalar", step)
	}
}

func pathString(path []string) string {
	return strings.Join(path, ".")
}
