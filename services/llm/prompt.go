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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/datatypes"
)

// proposalSystemPrompt instructs the model to act as a constrained JSON
// editor. The model only ever sees the flat map, never the raw document,
// so it cannot invent structural edits that survive parsing.
const proposalSystemPrompt = `You are a precise JSON document editor.
You receive a flat list of editable fields (id, path, value) extracted from a JSON document, plus an instruction describing what to change.
Respond with ONLY a JSON object of this exact shape, no prose and no code fences:
{"changes":[{"id":"c0","path":["..."],"current_value":"...","proposed_value":"...","confidence":0.95}],"ambiguous":false,"message":""}
Rules:
- Only propose changes to fields that exist in the provided list; copy their path and current value exactly.
- Never add, remove, or move fields. Value changes only.
- If the instruction could equally refer to several different fields, return {"changes":[],"ambiguous":true,"message":"<why>"}.
- If the instruction requires no change, return {"changes":[],"ambiguous":false,"message":"<why>"}.`

// suggestionSystemPrompt asks for clarification options for an ambiguous
// instruction.
const suggestionSystemPrompt = `You are helping a user refine an ambiguous editing instruction for a JSON document.
You receive the document's editable fields and the user's instruction.
Respond with ONLY a JSON object, no prose and no code fences:
{"suggestions":["<clearer instruction 1>","<clearer instruction 2>"],"message":""}
Offer at most 5 concrete rewordings, each unambiguous against the provided fields.`

// wireChange is the provider's JSON rendering of one proposed change.
type wireChange struct {
	ID            string   `json:"id"`
	Path          []string `json:"path"`
	CurrentValue  string   `json:"current_value"`
	ProposedValue string   `json:"proposed_value"`
	Confidence    *float64 `json:"confidence"`
}

type wireProposal struct {
	Changes   []wireChange `json:"changes"`
	Ambiguous bool         `json:"ambiguous"`
	Message   string       `json:"message"`
}

type wireSuggestions struct {
	Suggestions []string `json:"suggestions"`
	Message     string   `json:"message"`
}

// buildProposalPrompt renders the user message for a propose call.
func buildProposalPrompt(entries []docmap.MapEntry, instruction string) (string, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}

	var b strings.Builder
	b.WriteString("Editable fields:\n")
	b.Write(payload)
	b.WriteString("\n\nInstruction:\n")
	b.WriteString(instruction)
	return b.String(), nil
}

// buildSuggestionPrompt renders the user message for a suggest call.
func buildSuggestionPrompt(entries []docmap.MapEntry, instruction string) (string, error) {
	return buildProposalPrompt(entries, instruction)
}

// parseProposal validates raw model output against the entry set.
//
// Changes addressing paths that do not exist in the flat map are dropped:
// they are structural proposals the patch engine does not support.
// Missing ids are assigned, confidence is clamped into [0,1].
func parseProposal(raw string, entries []docmap.MapEntry) (*Proposal, error) {
	var wire wireProposal
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[docmap.PathKey(e.Path)] = struct{}{}
	}

	proposal := &Proposal{
		Ambiguous: wire.Ambiguous,
		Message:   wire.Message,
	}
	for i, c := range wire.Changes {
		if _, ok := known[docmap.PathKey(c.Path)]; !ok {
			slog.Warn("dropping structural proposal for unknown path",
				"path", strings.Join(c.Path, "."))
			continue
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			id = fmt.Sprintf("c%d", i)
		}
		confidence := 1.0
		if c.Confidence != nil {
			confidence = min(1.0, max(0.0, *c.Confidence))
		}
		proposal.Changes = append(proposal.Changes, datatypes.ProposedChange{
			ID:            id,
			Path:          c.Path,
			CurrentValue:  c.CurrentValue,
			ProposedValue: c.ProposedValue,
			Confidence:    confidence,
		})
	}
	return proposal, nil
}

// parseSuggestions validates raw model output for a suggest call.
func parseSuggestions(raw string) ([]string, error) {
	var wire wireSuggestions
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return wire.Suggestions, nil
}

// stripFences removes markdown code fences some models wrap around JSON
// despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
