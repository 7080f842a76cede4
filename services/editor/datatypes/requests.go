// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "encoding/json"

// PreviewRequest asks the service to propose edits for a document from a
// natural-language instruction. Nothing is mutated by a preview.
type PreviewRequest struct {
	Document    json.RawMessage `json:"document" binding:"required"`
	Instruction string          `json:"instruction" binding:"required,min=1,max=1000"`
}

// PreviewResponse carries the proposed change set and the session that
// binds it to the previewed document.
type PreviewResponse struct {
	SessionID   string           `json:"session_id,omitempty"`
	Changes     []ProposedChange `json:"changes"`
	Message     string           `json:"message"`
	Status      string           `json:"status"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// ApplyRequest commits a previously previewed change set. If
// ConfirmedChangeIDs is empty, every proposed change in the session is
// attempted. CurrentDocument must be the caller's live document; its
// fingerprint is re-checked against the one captured at preview time.
type ApplyRequest struct {
	SessionID          string          `json:"session_id" binding:"required"`
	ConfirmedChangeIDs []string        `json:"confirmed_change_ids"`
	CurrentDocument    json.RawMessage `json:"current_document" binding:"required"`
}

// ApplyResponse carries the new document and the per-edit outcome report.
// Status is "success" when every edit applied, "partial_success" when
// some did, and "failed" when none did.
type ApplyResponse struct {
	ModifiedDocument any             `json:"modified_document"`
	AppliedChanges   []AppliedChange `json:"applied_changes"`
	Message          string          `json:"message"`
	Status           string          `json:"status"`
}

// SessionSummary is the admin view of one stored session.
type SessionSummary struct {
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
	ChangeCount int    `json:"change_count"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}
