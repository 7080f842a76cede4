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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFingerprintStableAcrossKeyOrder verifies canonicalization makes the
// hash independent of object key order in the source text.
func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	a := mustParse(t, `{"name": "John", "age": 30}`)
	b := mustParse(t, `{"age": 30, "name": "John"}`)

	fpA, err := Fingerprint(a)
	require.NoError(t, err)
	fpB, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB)
	assert.Len(t, fpA, 64)
}

// TestFingerprintDetectsChange verifies any value change alters the hash.
func TestFingerprintDetectsChange(t *testing.T) {
	before := mustParse(t, `{"email": "john@example.com"}`)
	after := mustParse(t, `{"email": "john.doe@newcompany.com"}`)

	fpBefore, err := Fingerprint(before)
	require.NoError(t, err)
	fpAfter, err := Fingerprint(after)
	require.NoError(t, err)

	assert.NotEqual(t, fpBefore, fpAfter)
}

// TestFingerprintNestedArrays verifies array order is significant.
func TestFingerprintNestedArrays(t *testing.T) {
	a := mustParse(t, `{"tags": ["x", "y"]}`)
	b := mustParse(t, `{"tags": ["y", "x"]}`)

	fpA, err := Fingerprint(a)
	require.NoError(t, err)
	fpB, err := Fingerprint(b)
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)
}
