// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/redline/services/docmap"
)

func sampleEntries() []docmap.MapEntry {
	return []docmap.MapEntry{
		{ID: "t0", Path: []string{"user", "email"}, Value: "old@example.com", TypeHint: docmap.TypeString},
		{ID: "t1", Path: []string{"user", "age"}, Value: "30", TypeHint: docmap.TypeNumber},
	}
}

func TestParseProposalValid(t *testing.T) {
	raw := `{"changes":[{"id":"c0","path":["user","email"],"current_value":"old@example.com","proposed_value":"new@example.com","confidence":0.92}],"ambiguous":false,"message":"updated email"}`

	p, err := parseProposal(raw, sampleEntries())
	require.NoError(t, err)
	require.Len(t, p.Changes, 1)
	assert.False(t, p.Ambiguous)
	assert.Equal(t, "c0", p.Changes[0].ID)
	assert.Equal(t, []string{"user", "email"}, p.Changes[0].Path)
	assert.Equal(t, "new@example.com", p.Changes[0].ProposedValue)
	assert.InDelta(t, 0.92, p.Changes[0].Confidence, 1e-9)
}

func TestParseProposalDropsStructuralChanges(t *testing.T) {
	// The model invented a field that is not in the flat map.
	raw := `{"changes":[
		{"id":"c0","path":["user","nickname"],"current_value":"","proposed_value":"Bob","confidence":1.0},
		{"id":"c1","path":["user","age"],"current_value":"30","proposed_value":"31","confidence":1.0}
	],"ambiguous":false,"message":""}`

	p, err := parseProposal(raw, sampleEntries())
	require.NoError(t, err)
	require.Len(t, p.Changes, 1)
	assert.Equal(t, []string{"user", "age"}, p.Changes[0].Path)
}

func TestParseProposalAssignsMissingIDsAndClampsConfidence(t *testing.T) {
	raw := `{"changes":[{"path":["user","age"],"current_value":"30","proposed_value":"31","confidence":3.5}],"ambiguous":false,"message":""}`

	p, err := parseProposal(raw, sampleEntries())
	require.NoError(t, err)
	require.Len(t, p.Changes, 1)
	assert.Equal(t, "c0", p.Changes[0].ID)
	assert.Equal(t, 1.0, p.Changes[0].Confidence)
}

func TestParseProposalAmbiguous(t *testing.T) {
	raw := `{"changes":[],"ambiguous":true,"message":"several phone fields match"}`

	p, err := parseProposal(raw, sampleEntries())
	require.NoError(t, err)
	assert.True(t, p.Ambiguous)
	assert.Empty(t, p.Changes)
	assert.Equal(t, "several phone fields match", p.Message)
}

func TestParseProposalStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"changes\":[],\"ambiguous\":false,\"message\":\"nothing to do\"}\n```"

	p, err := parseProposal(raw, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, "nothing to do", p.Message)
}

func TestParseProposalMalformed(t *testing.T) {
	_, err := parseProposal("I updated the email for you!", sampleEntries())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseSuggestions(t *testing.T) {
	raw := `{"suggestions":["change the mobile phone number","change the work phone number"],"message":""}`

	s, err := parseSuggestions(raw)
	require.NoError(t, err)
	assert.Len(t, s, 2)

	_, err = parseSuggestions("not json")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestBuildProposalPromptContainsEntriesAndInstruction(t *testing.T) {
	prompt, err := buildProposalPrompt(sampleEntries(), "bump the age to 31")
	require.NoError(t, err)
	assert.Contains(t, prompt, `"t0"`)
	assert.Contains(t, prompt, "old@example.com")
	assert.Contains(t, prompt, "bump the age to 31")
}
