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
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
//
// # Description
//
// Single-process deployments and tests use this store. Expiry is
// checked lazily on access against the injected clock; Sweep removes
// expired sessions eagerly and is usually driven by a Cleaner.
//
// # Thread Safety
//
// Safe for concurrent use. A single mutex guards the map, which makes
// the open-to-applying transition trivially atomic.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store. A nil now means wall
// time.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

func (m *MemoryStore) expired(s *Session) bool {
	return s.TTL > 0 && !m.now().Before(s.ExpiresAt())
}

// Create implements the Store interface.
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *s
	m.sessions[s.SessionID] = &clone
	return nil
}

// Get implements the Store interface.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || m.expired(s) {
		return nil, ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

// TryBeginApply implements the Store interface.
func (m *MemoryStore) TryBeginApply(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || m.expired(s) {
		return nil, ErrSessionNotFound
	}

	switch s.Status {
	case StatusOpen:
		s.Status = StatusApplying
		clone := *s
		return &clone, nil
	case StatusApplying, StatusApplied:
		return nil, ErrConcurrentApply
	default:
		return nil, ErrInvalidTransition
	}
}

// FinishApply implements the Store interface.
func (m *MemoryStore) FinishApply(ctx context.Context, id string, anyApplied bool) error {
	next := StatusOpen
	if anyApplied {
		next = StatusApplied
	}
	return m.transition(ctx, id, StatusApplying, next)
}

// Invalidate implements the Store interface.
func (m *MemoryStore) Invalidate(ctx context.Context, id string) error {
	return m.transition(ctx, id, StatusOpen, StatusInvalid)
}

func (m *MemoryStore) transition(ctx context.Context, id string, from, to Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || m.expired(s) {
		return ErrSessionNotFound
	}
	if s.Status != from {
		return ErrInvalidTransition
	}
	s.Status = to
	return nil
}

// Delete implements the Store interface.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// List implements the Store interface.
func (m *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if m.expired(s) {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Ping implements the Store interface.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements the Store interface.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	return nil
}
