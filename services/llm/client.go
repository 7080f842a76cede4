// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm turns natural-language edit instructions into change
// proposals via pluggable providers, wrapped in retry, rate limiting,
// and circuit breaking.
package llm

import (
	"context"

	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/datatypes"
)

// Proposal is a provider's answer for one preview instruction.
//
// When Ambiguous is set the instruction matched multiple equally
// plausible targets; Changes is empty and the caller should ask for
// Suggest output instead of creating a session.
type Proposal struct {
	Changes   []datatypes.ProposedChange
	Ambiguous bool
	Message   string
}

// Client defines the standard interface for any change-proposal backend.
//
// Implementations receive the flat map of a document plus the caller's
// natural-language instruction and decide what to change. They never see
// or mutate the document tree itself.
type Client interface {
	// Propose returns candidate edits for the instruction. Every returned
	// change addresses an existing entry path; structural proposals are
	// dropped before they reach the caller.
	Propose(ctx context.Context, entries []docmap.MapEntry, instruction string) (*Proposal, error)

	// Suggest returns clarification suggestions for an ambiguous
	// instruction.
	Suggest(ctx context.Context, entries []docmap.MapEntry, instruction string) ([]string, error)
}
