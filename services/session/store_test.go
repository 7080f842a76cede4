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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/redline/services/editor/datatypes"
)

func newTestSession(t *testing.T, ttl time.Duration) *Session {
	t.Helper()

	id, err := NewSessionID()
	require.NoError(t, err)

	return &Session{
		SessionID:           id,
		DocumentFingerprint: "abc123",
		ProposedChanges: []datatypes.ProposedChange{
			{
				ID:            "c0",
				Path:          []string{"user", "email"},
				CurrentValue:  "old@example.com",
				ProposedValue: "new@example.com",
				Confidence:    0.95,
			},
		},
		Status:    StatusOpen,
		CreatedAt: time.Now().UTC(),
		TTL:       ttl,
	}
}

// withStores runs the test against both store implementations.
func withStores(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		store := NewMemoryStore(nil)
		defer store.Close()
		fn(t, store)
	})

	t.Run("badger", func(t *testing.T) {
		store, err := OpenBadger(InMemoryBadgerConfig())
		require.NoError(t, err)
		defer store.Close()
		fn(t, store)
	})
}

func TestStoreCreateAndGet(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)

		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, sess.SessionID, got.SessionID)
		assert.Equal(t, sess.DocumentFingerprint, got.DocumentFingerprint)
		assert.Equal(t, StatusOpen, got.Status)
		require.Len(t, got.ProposedChanges, 1)
		assert.Equal(t, "c0", got.ProposedChanges[0].ID)
	})
}

func TestStoreGetMissing(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		_, err := store.Get(context.Background(), "no-such-session")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestStoreApplyLifecycle(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		claimed, err := store.TryBeginApply(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StatusApplying, claimed.Status)

		// A second claim while applying loses.
		_, err = store.TryBeginApply(ctx, sess.SessionID)
		assert.ErrorIs(t, err, ErrConcurrentApply)

		require.NoError(t, store.FinishApply(ctx, sess.SessionID, true))

		got, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, got.Status)

		// Applied sessions are single-use.
		_, err = store.TryBeginApply(ctx, sess.SessionID)
		assert.ErrorIs(t, err, ErrConcurrentApply)
	})
}

func TestStoreFinishApplyNothingAppliedReopens(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		_, err := store.TryBeginApply(ctx, sess.SessionID)
		require.NoError(t, err)
		require.NoError(t, store.FinishApply(ctx, sess.SessionID, false))

		// All edits were skipped, so the client may retry.
		got, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StatusOpen, got.Status)

		_, err = store.TryBeginApply(ctx, sess.SessionID)
		assert.NoError(t, err)
	})
}

func TestStoreInvalidate(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		require.NoError(t, store.Invalidate(ctx, sess.SessionID))

		got, err := store.Get(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StatusInvalid, got.Status)

		_, err = store.TryBeginApply(ctx, sess.SessionID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStoreFinishApplyWithoutClaim(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		err := store.FinishApply(ctx, sess.SessionID, true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStoreDeleteIdempotent(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		require.NoError(t, store.Delete(ctx, sess.SessionID))
		require.NoError(t, store.Delete(ctx, sess.SessionID))

		_, err := store.Get(ctx, sess.SessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestStoreList(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		a := newTestSession(t, time.Hour)
		b := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestStoreConcurrentApplyExactlyOneWins(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		sess := newTestSession(t, time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		const racers = 16
		var wins, losses atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start

				_, err := store.TryBeginApply(ctx, sess.SessionID)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, ErrConcurrentApply):
					losses.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}

		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(racers-1), losses.Load())
	})
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	defer store.Close()

	ctx := context.Background()
	sess := newTestSession(t, 30*time.Minute)
	sess.CreatedAt = now
	require.NoError(t, store.Create(ctx, sess))

	_, err := store.Get(ctx, sess.SessionID)
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)

	_, err = store.Get(ctx, sess.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.TryBeginApply(ctx, sess.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Sweep())
}

func TestMemoryStoreListSkipsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	defer store.Close()

	ctx := context.Background()
	short := newTestSession(t, 10*time.Minute)
	short.CreatedAt = now
	long := newTestSession(t, time.Hour)
	long.CreatedAt = now
	require.NoError(t, store.Create(ctx, short))
	require.NoError(t, store.Create(ctx, long))

	now = now.Add(20 * time.Minute)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, long.SessionID, all[0].SessionID)
}

func TestNewSessionID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewSessionID()
		require.NoError(t, err)
		assert.Len(t, id, 43)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate session id")
		seen[id] = struct{}{}
	}
}

func TestCleanerSweeps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clockNow := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := NewMemoryStore(clockNow)
	defer store.Close()

	ctx := context.Background()
	sess := newTestSession(t, time.Minute)
	sess.CreatedAt = now
	require.NoError(t, store.Create(ctx, sess))

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	cleaner := NewCleaner(store, 5*time.Millisecond, nil)
	cleaner.Start()
	defer cleaner.Stop()

	require.Eventually(t, func() bool {
		all, err := store.List(ctx)
		return err == nil && len(all) == 0
	}, time.Second, 5*time.Millisecond)
}
