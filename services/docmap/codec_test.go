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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) any {
	t.Helper()
	doc, err := ParseDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

// TestEncodeDeterministic verifies ids, ordering, and type hints for a
// document covering every scalar type.
func TestEncodeDeterministic(t *testing.T) {
	doc := mustParse(t, `{
		"name": "John Doe",
		"age": 30,
		"active": true,
		"nickname": null,
		"tags": ["a", "b"]
	}`)

	entries, err := Encode(doc, Limits{})
	require.NoError(t, err)
	require.Len(t, entries, 6)

	// Sorted key order: active, age, name, nickname, tags[0], tags[1].
	assert.Equal(t, "t0", entries[0].ID)
	assert.Equal(t, []string{"active"}, entries[0].Path)
	assert.Equal(t, "true", entries[0].Value)
	assert.Equal(t, TypeBoolean, entries[0].TypeHint)

	assert.Equal(t, []string{"age"}, entries[1].Path)
	assert.Equal(t, "30", entries[1].Value)
	assert.Equal(t, TypeNumber, entries[1].TypeHint)

	assert.Equal(t, []string{"name"}, entries[2].Path)
	assert.Equal(t, TypeString, entries[2].TypeHint)

	assert.Equal(t, []string{"nickname"}, entries[3].Path)
	assert.Equal(t, "null", entries[3].Value)
	assert.Equal(t, TypeNull, entries[3].TypeHint)

	assert.Equal(t, []string{"tags", "0"}, entries[4].Path)
	assert.Equal(t, []string{"tags", "1"}, entries[5].Path)
	assert.Equal(t, "t5", entries[5].ID)

	// Same document, same ids.
	again, err := Encode(doc, Limits{})
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

// TestRoundTrip verifies decode(shape, encode(doc)) == doc, values and
// type hints preserved exactly.
func TestRoundTrip(t *testing.T) {
	raw := `{
		"name": "John Doe",
		"age": 30,
		"balance": 1234.5600,
		"email": "john@example.com",
		"flags": {"admin": false, "beta": true},
		"history": [{"note": "first"}, {"note": null}],
		"empty_list": [],
		"empty_obj": {}
	}`
	doc := mustParse(t, raw)

	entries, err := Encode(doc, Limits{})
	require.NoError(t, err)

	rebuilt, err := Decode(doc, entries)
	require.NoError(t, err)
	assert.Equal(t, doc, rebuilt)

	// The literal "1234.5600" must survive untouched.
	flat := rebuilt.(map[string]any)
	assert.Equal(t, json.Number("1234.5600"), flat["balance"])
}

// TestEncodeNoLeaves verifies documents without scalars yield empty maps.
func TestEncodeNoLeaves(t *testing.T) {
	for _, raw := range []string{`{}`, `[]`, `{"a": {}, "b": []}`} {
		entries, err := Encode(mustParse(t, raw), Limits{})
		require.NoError(t, err)
		assert.Empty(t, entries, "document %s", raw)
	}
}

// TestEncodeScalarRoot verifies a bare scalar document becomes one entry
// with an empty path.
func TestEncodeScalarRoot(t *testing.T) {
	entries, err := Encode(mustParse(t, `"hello"`), Limits{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Path)
	assert.Equal(t, "hello", entries[0].Value)
}

// TestScalarRootRoundTrip verifies bare scalar documents survive
// decode(shape, encode(doc)) for every scalar type.
func TestScalarRootRoundTrip(t *testing.T) {
	for _, raw := range []string{`"hello"`, `42`, `true`, `null`} {
		doc := mustParse(t, raw)

		entries, err := Encode(doc, Limits{})
		require.NoError(t, err)
		require.Len(t, entries, 1, "document %s", raw)

		rebuilt, err := Decode(doc, entries)
		require.NoError(t, err, "document %s", raw)
		assert.Equal(t, doc, rebuilt, "document %s", raw)
	}
}

// TestDecodeScalarRootEdit verifies the root value itself can be
// rewritten through its empty-path entry.
func TestDecodeScalarRootEdit(t *testing.T) {
	doc := mustParse(t, `"hello"`)

	rebuilt, err := Decode(doc, []MapEntry{{
		ID:       "t0",
		Value:    "goodbye",
		TypeHint: TypeString,
	}})
	require.NoError(t, err)
	assert.Equal(t, "goodbye", rebuilt)
	assert.Equal(t, "hello", doc)
}

// TestDecodeEmptyPathOnContainerRoot verifies an empty-path entry cannot
// overwrite a composite root.
func TestDecodeEmptyPathOnContainerRoot(t *testing.T) {
	doc := mustParse(t, `{"a": 1}`)

	_, err := Decode(doc, []MapEntry{{
		ID: "t0", Value: "x", TypeHint: TypeString,
	}})
	require.ErrorIs(t, err, ErrReconstruction)
}

// TestEncodeDepthLimit verifies the fail-fast depth guardrail.
func TestEncodeDepthLimit(t *testing.T) {
	raw := `{"a":{"b":{"c":{"d":"deep"}}}}`
	doc := mustParse(t, raw)

	_, err := Encode(doc, Limits{MaxDepth: 3})
	require.ErrorIs(t, err, ErrDocumentTooDeep)

	_, err = Encode(doc, Limits{MaxDepth: 5})
	require.NoError(t, err)
}

// TestEncodeSizeLimit verifies the fail-fast size guardrail.
func TestEncodeSizeLimit(t *testing.T) {
	doc := mustParse(t, `{"text": "`+strings.Repeat("x", 200)+`"}`)

	_, err := Encode(doc, Limits{MaxBytes: 100})
	require.ErrorIs(t, err, ErrDocumentTooLarge)
}

// TestDecodeMissingPath verifies entries addressing absent paths fail
// reconstruction.
func TestDecodeMissingPath(t *testing.T) {
	doc := mustParse(t, `{"name": "John"}`)

	_, err := Decode(doc, []MapEntry{{
		ID:       "t0",
		Path:     []string{"missing"},
		Value:    "x",
		TypeHint: TypeString,
	}})
	require.ErrorIs(t, err, ErrReconstruction)
}

// TestDecodeBadCoercion verifies values that do not parse as the hinted
// type are rejected, never silently coerced.
func TestDecodeBadCoercion(t *testing.T) {
	doc := mustParse(t, `{"age": 30, "active": true}`)

	_, err := Decode(doc, []MapEntry{{
		ID: "t0", Path: []string{"age"}, Value: "not_a_number", TypeHint: TypeNumber,
	}})
	require.ErrorIs(t, err, ErrReconstruction)

	_, err = Decode(doc, []MapEntry{{
		ID: "t0", Path: []string{"active"}, Value: "yes", TypeHint: TypeBoolean,
	}})
	require.ErrorIs(t, err, ErrReconstruction)
}

// TestDecodeDoesNotMutateShape verifies the shape document is untouched.
func TestDecodeDoesNotMutateShape(t *testing.T) {
	doc := mustParse(t, `{"email": "john@example.com"}`)

	rebuilt, err := Decode(doc, []MapEntry{{
		ID:       "t0",
		Path:     []string{"email"},
		Value:    "john.doe@newcompany.com",
		TypeHint: TypeString,
	}})
	require.NoError(t, err)

	assert.Equal(t, "john@example.com", doc.(map[string]any)["email"])
	assert.Equal(t, "john.doe@newcompany.com", rebuilt.(map[string]any)["email"])
}

// TestParseDocumentRejectsGarbage verifies invalid JSON surfaces
// ErrInvalidDocument.
func TestParseDocumentRejectsGarbage(t *testing.T) {
	_, err := ParseDocument([]byte(`{"a":`))
	require.ErrorIs(t, err, ErrInvalidDocument)

	_, err = ParseDocument([]byte(`{} trailing`))
	require.ErrorIs(t, err, ErrInvalidDocument)
}

// TestCoerce verifies the per-type coercion table.
func TestCoerce(t *testing.T) {
	v, err := Coerce("42.5", TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, json.Number("42.5"), v)

	v, err = Coerce("false", TypeBoolean)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = Coerce("null", TypeNull)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Coerce("something", TypeNull)
	require.Error(t, err)
}
