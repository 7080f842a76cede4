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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces session records in the shared key space.
const keyPrefix = "session/"

// BadgerConfig holds configuration for the Badger-backed store.
type BadgerConfig struct {
	// Path is the directory for database files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives Badger's internal log output. If nil, Badger's
	// internal logging is disabled.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Default: 5 minutes. Set to 0 to disable. Ignored in memory mode.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	// Default: 0.5.
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns configuration for testing.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore persists sessions in an embedded Badger database.
//
// # Description
//
// Sessions are stored as JSON values under "session/<id>" with a Badger
// entry TTL, so expiry needs no sweeper. The open-to-applying
// transition runs in a serializable transaction; Badger reports a
// write-write conflict when two applies race, which surfaces as
// ErrConcurrentApply to the loser.
//
// # Thread Safety
//
// Safe for concurrent use.
type BadgerStore struct {
	db       *badger.DB
	stopGC   chan struct{}
	doneGC   chan struct{}
	inMemory bool
}

// OpenBadger opens a Badger-backed session store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent session store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create session store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	s := &BadgerStore{db: db, inMemory: cfg.InMemory}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCDiscardRatio
		if ratio <= 0 || ratio > 1 {
			ratio = 0.5
		}
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, ratio, cfg.Logger)
	}
	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64, logger *slog.Logger) {
	defer close(s.doneGC)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && logger != nil {
				logger.Warn("session store value log GC error", "error", err)
			}
		}
	}
}

func sessionKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// Create implements the Store interface.
func (s *BadgerStore) Create(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(sess.SessionID), payload)
		if sess.TTL > 0 {
			entry = entry.WithTTL(sess.TTL)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Get implements the Store interface.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &sess, nil
}

// TryBeginApply implements the Store interface.
//
// Badger transactions are serializable: if two applies read the same
// open session and both write, one commit fails with ErrConflict. That
// loser, and anyone who reads a session already in applying or a
// terminal state, gets ErrConcurrentApply.
func (s *BadgerStore) TryBeginApply(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess Session
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		}); err != nil {
			return err
		}

		switch sess.Status {
		case StatusOpen:
			// Fall through to claim it.
		case StatusApplying, StatusApplied:
			return ErrConcurrentApply
		default:
			return ErrInvalidTransition
		}

		sess.Status = StatusApplying
		payload, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		entry := badger.NewEntry(sessionKey(id), payload)
		// Preserve the original expiry so claiming a session never
		// extends its life.
		if exp := item.ExpiresAt(); exp > 0 {
			remaining := time.Until(time.Unix(int64(exp), 0))
			if remaining <= 0 {
				return badger.ErrKeyNotFound
			}
			entry = entry.WithTTL(remaining)
		}
		return txn.SetEntry(entry)
	})

	switch {
	case err == nil:
		return &sess, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrSessionNotFound
	case errors.Is(err, badger.ErrConflict):
		return nil, ErrConcurrentApply
	case errors.Is(err, ErrConcurrentApply), errors.Is(err, ErrInvalidTransition):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

// FinishApply implements the Store interface.
func (s *BadgerStore) FinishApply(ctx context.Context, id string, anyApplied bool) error {
	next := StatusOpen
	if anyApplied {
		next = StatusApplied
	}
	return s.transition(ctx, id, StatusApplying, next)
}

// Invalidate implements the Store interface.
func (s *BadgerStore) Invalidate(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusOpen, StatusInvalid)
}

func (s *BadgerStore) transition(ctx context.Context, id string, from, to Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		var sess Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		}); err != nil {
			return err
		}
		if sess.Status != from {
			return ErrInvalidTransition
		}
		sess.Status = to

		payload, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		entry := badger.NewEntry(sessionKey(id), payload)
		if exp := item.ExpiresAt(); exp > 0 {
			remaining := time.Until(time.Unix(int64(exp), 0))
			if remaining <= 0 {
				return badger.ErrKeyNotFound
			}
			entry = entry.WithTTL(remaining)
		}
		return txn.SetEntry(entry)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrSessionNotFound
	case errors.Is(err, ErrInvalidTransition):
		return err
	case errors.Is(err, badger.ErrConflict):
		return ErrConcurrentApply
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

// Delete implements the Store interface.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// List implements the Store interface.
func (s *BadgerStore) List(ctx context.Context) ([]*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*Session
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var sess Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			}); err != nil {
				return err
			}
			out = append(out, &sess)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// Ping implements the Store interface.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrStorageUnavailable
	}
	return nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
	}
	return s.db.Close()
}
