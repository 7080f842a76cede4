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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider down")

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(DefaultBreakerConfig(), clock)

	for i := 0; i < 4; i++ {
		require.True(t, cb.Allow())
		cb.Record(errProvider)
		assert.Equal(t, CircuitClosed, cb.State(), "failure %d should not trip", i+1)
	}

	require.True(t, cb.Allow())
	cb.Record(errProvider)
	assert.Equal(t, CircuitOpen, cb.State())

	// While open, calls are rejected without reaching the provider.
	assert.False(t, cb.Allow())
	assert.Equal(t, ErrCircuitOpen, cb.Execute(func() error {
		t.Fatal("provider must not be called while circuit is open")
		return nil
	}))
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(DefaultBreakerConfig(), newFakeClock())

	for i := 0; i < 4; i++ {
		cb.Record(errProvider)
	}
	cb.Record(nil)
	assert.Equal(t, 0, cb.Failures())

	// A fresh run of failures needs the full threshold again.
	for i := 0; i < 4; i++ {
		cb.Record(errProvider)
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(DefaultBreakerConfig(), clock)

	for i := 0; i < 5; i++ {
		cb.Record(errProvider)
	}
	require.Equal(t, CircuitOpen, cb.State())
	require.False(t, cb.Allow())

	// Cool-down elapses; the next request is a trial.
	clock.Advance(5*time.Minute + time.Second)
	require.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.Record(nil)
	cb.Record(nil)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(DefaultBreakerConfig(), clock)

	for i := 0; i < 5; i++ {
		cb.Record(errProvider)
	}
	clock.Advance(6 * time.Minute)
	require.True(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.Record(nil)
	cb.Record(errProvider)
	assert.Equal(t, CircuitOpen, cb.State())

	// Cool-down restarts from the half-open failure.
	assert.False(t, cb.Allow())
	clock.Advance(6 * time.Minute)
	assert.True(t, cb.Allow())
}

func TestBreakerHalfOpenTrialCap(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(DefaultBreakerConfig(), clock)

	for i := 0; i < 5; i++ {
		cb.Record(errProvider)
	}
	require.Equal(t, CircuitOpen, cb.State())
	clock.Advance(6 * time.Minute)

	// Only SuccessThreshold trials may be in flight at once.
	require.True(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())
	require.True(t, cb.Allow())
	require.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	// A finished trial frees its slot for the next caller.
	cb.Record(nil)
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	// An abandoned trial frees its slot without moving the counters.
	cb.Release()
	assert.True(t, cb.Allow())
}

func TestBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(DefaultBreakerConfig(), newFakeClock())

	for i := 0; i < 5; i++ {
		cb.Record(errProvider)
	}
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
	assert.True(t, cb.Allow())
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", CircuitClosed.String())
	assert.Equal(t, "OPEN", CircuitOpen.String())
	assert.Equal(t, "HALF_OPEN", CircuitHalfOpen.String())
}
