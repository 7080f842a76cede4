// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Sentinel errors for session stores.
var (
	// ErrSessionNotFound: no session with that id, or it expired.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrConcurrentApply: another apply holds or consumed the session.
	ErrConcurrentApply = errors.New("session is being applied by another request")

	// ErrInvalidTransition: the session is not in a state that permits
	// the requested transition.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrStorageUnavailable: the backing store failed.
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// Store persists sessions between preview and apply.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. TryBeginApply must
// guarantee that exactly one of any number of racing callers succeeds
// for a given open session.
type Store interface {
	// Create persists a new session under its TTL.
	Create(ctx context.Context, s *Session) error

	// Get returns the session, or ErrSessionNotFound if absent/expired.
	Get(ctx context.Context, id string) (*Session, error)

	// TryBeginApply atomically moves an open session to applying and
	// returns it. Racing callers lose with ErrConcurrentApply; sessions
	// in any other state fail with ErrConcurrentApply (already held or
	// consumed) or ErrInvalidTransition (invalid).
	TryBeginApply(ctx context.Context, id string) (*Session, error)

	// FinishApply completes an apply. When anyApplied is true the
	// session becomes applied (terminal); otherwise it returns to open
	// so the client can retry after fixing its document.
	FinishApply(ctx context.Context, id string, anyApplied bool) error

	// Invalidate marks an open session invalid so it can never be
	// applied. Terminal.
	Invalidate(ctx context.Context, id string) error

	// Delete removes a session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns all live sessions.
	List(ctx context.Context) ([]*Session, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// NewSessionID returns an unguessable session token: 32 bytes of
// crypto randomness, base64url without padding (43 characters).
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
