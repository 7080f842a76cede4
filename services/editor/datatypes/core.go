// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the domain and wire types shared across the
// editor service: proposed and applied changes, request/response shapes,
// and the uniform error envelope.
package datatypes

import "time"

// ProposedChange is a candidate edit produced by the change-proposal
// gateway during preview. It is immutable once created and is never
// persisted beyond its session's lifetime.
type ProposedChange struct {
	ID            string   `json:"id"`
	Path          []string `json:"path"`
	CurrentValue  string   `json:"current_value"`
	ProposedValue string   `json:"proposed_value"`
	Confidence    float64  `json:"confidence"`
}

// ChangeStatus is the per-edit outcome after the patch engine runs.
type ChangeStatus string

const (
	// ChangeApplied means the edit was written into the new document.
	ChangeApplied ChangeStatus = "applied"

	// ChangeSkippedStale means the leaf's value no longer matched the
	// edit's current_value, so the edit was skipped.
	ChangeSkippedStale ChangeStatus = "skipped_stale"

	// ChangeSkippedTypeMismatch means the proposed value could not be
	// coerced to the leaf's original JSON type.
	ChangeSkippedTypeMismatch ChangeStatus = "skipped_type_mismatch"

	// ChangeSkippedNotFound means no leaf exists at the edit's path.
	ChangeSkippedNotFound ChangeStatus = "skipped_not_found"
)

// AppliedChange is the per-edit result record returned by apply.
type AppliedChange struct {
	ID        string       `json:"id"`
	Path      []string     `json:"path"`
	Status    ChangeStatus `json:"status"`
	OldValue  string       `json:"old_value,omitempty"`
	NewValue  string       `json:"new_value,omitempty"`
	AppliedAt time.Time    `json:"applied_at,omitempty"`
}

// Preview response statuses.
const (
	PreviewSuccess   = "success"
	PreviewNoChanges = "no_changes"
	PreviewAmbiguous = "ambiguous"
)

// Apply response statuses.
const (
	ApplySuccess        = "success"
	ApplyPartialSuccess = "partial_success"
	ApplyFailed         = "failed"
)
