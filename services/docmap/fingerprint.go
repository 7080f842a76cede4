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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Fingerprint computes a deterministic content hash of a document.
//
// # Description
//
// The document is rendered to canonical JSON (object keys sorted, no
// insignificant whitespace, number literals preserved) and hashed with
// SHA-256. Two documents with equal content produce the same fingerprint
// regardless of original key order; any value change produces a
// different one.
//
// # Outputs
//
//   - string: lowercase hex SHA-256 digest.
//   - error: ErrInvalidDocument if the tree contains non-JSON values.
func Fingerprint(doc any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// writeCanonical renders a document tree as canonical JSON.
func writeCanonical(buf *bytes.Buffer, node any) error {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case json.Number:
		buf.WriteString(v.String())
		return nil

	default:
		// Strings, bools, floats, and null marshal canonically on their own.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	}
}
