// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session stores preview sessions between the preview and apply
// phases of an edit.
//
// A session captures the proposed changes and a fingerprint of the
// document they were computed against. Sessions are single-use and
// expire on a TTL; the store guarantees that at most one apply wins when
// clients race on the same session.
package session

import (
	"time"

	"github.com/AleutianAI/redline/services/editor/datatypes"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusOpen: previewed, waiting for an apply.
	StatusOpen Status = "open"

	// StatusApplying: an apply holds the session. Transient.
	StatusApplying Status = "applying"

	// StatusApplied: consumed by a successful apply. Terminal.
	StatusApplied Status = "applied"

	// StatusInvalid: explicitly invalidated by the client. Terminal.
	StatusInvalid Status = "invalid"

	// StatusExpired: the TTL elapsed. Expired sessions are removed from
	// the store rather than persisted in this state; Get reports them as
	// ErrSessionNotFound. The constant exists for reporting surfaces.
	StatusExpired Status = "expired"
)

// Session is the persisted state between preview and apply.
type Session struct {
	// SessionID is an unguessable token handed to the client.
	SessionID string `json:"session_id"`

	// DocumentFingerprint is the canonical hash of the previewed document.
	DocumentFingerprint string `json:"document_fingerprint"`

	// ProposedChanges are the edits the model proposed at preview time.
	ProposedChanges []datatypes.ProposedChange `json:"proposed_changes"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// CreatedAt is when the preview completed.
	CreatedAt time.Time `json:"created_at"`

	// TTL is the configured lifetime at creation.
	TTL time.Duration `json:"ttl"`
}

// ExpiresAt returns the session's expiry deadline.
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.TTL)
}
