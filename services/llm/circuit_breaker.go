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
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
//
// # States
//
//   - Closed: Normal operation, requests flow through
//   - Open: Circuit tripped, requests are rejected immediately
//   - HalfOpen: Testing if the provider recovered, limited requests allowed
//
// # State Diagram
//
//	   ┌─────────────────────────────────────┐
//	   │                                     │
//	   ▼                                     │
//	CLOSED ──[failure threshold]──► OPEN ───┘
//	   ▲                              │
//	   │                              │
//	   └───[successes]◄── HALF_OPEN ◄─┘
//	                      [cool-down]
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota

	// CircuitOpen means the circuit has tripped and requests fail fast.
	CircuitOpen

	// CircuitHalfOpen means we're testing if the provider has recovered.
	CircuitHalfOpen
)

// String returns a human-readable state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open. No
// external call is attempted while it is.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig configures circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is consecutive failures before opening the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is consecutive half-open successes to close. It
	// also caps how many half-open trials may be in flight at once.
	// Default: 3
	SuccessThreshold int

	// OpenTimeout is how long to stay open before trying half-open.
	// Default: 5 minutes
	OpenTimeout time.Duration

	// OnStateChange is called when state transitions.
	// Called asynchronously to avoid blocking.
	OnStateChange func(from, to CircuitState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		OpenTimeout:      5 * time.Minute,
	}
}

// CircuitBreaker implements the circuit breaker pattern for one provider.
//
// # Description
//
// Prevents cascading failures by stopping requests to a degraded
// provider. After a cool-down, lets limited trial requests through to
// test recovery. Every call outcome feeds the counters, making this the
// only mutable shared state in the gateway.
//
// # Thread Safety
//
// CircuitBreaker is safe for concurrent use by multiple in-flight
// requests to the same provider.
type CircuitBreaker struct {
	config      BreakerConfig
	clock       Clock
	state       CircuitState
	failures    int
	successes   int
	inFlight    int // admitted half-open trials awaiting an outcome
	lastFailure time.Time
	mu          sync.RWMutex
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
// A nil clock means wall time.
func NewCircuitBreaker(config BreakerConfig, clock Clock) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 5 * time.Minute
	}
	if clock == nil {
		clock = SystemClock()
	}

	return &CircuitBreaker{
		config: config,
		clock:  clock,
		state:  CircuitClosed,
	}
}

// Execute runs the function if the circuit allows it, recording the
// outcome either way.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.Record(err)
	return err
}

// Allow reports whether a request may proceed. An open circuit whose
// cool-down has elapsed transitions to half-open and lets the request
// through as a trial; at most SuccessThreshold trials are in flight at
// once while half-open.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if cb.clock.Now().Sub(cb.lastFailure) > cb.config.OpenTimeout {
			cb.transitionTo(CircuitHalfOpen)
			cb.inFlight = 1
			return true
		}
		return false

	case CircuitHalfOpen:
		if cb.inFlight >= cb.config.SuccessThreshold {
			return false
		}
		cb.inFlight++
		return true

	default:
		return false
	}
}

// Record feeds one call outcome into the breaker's counters.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
}

// Release returns a slot taken by Allow without recording an outcome.
// Used when the caller abandoned the call, which says nothing about
// provider health.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	cb.successes = 0
	cb.lastFailure = cb.clock.Now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure in half-open goes back to open; cool-down restarts.
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.successes++

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		if cb.successes >= cb.config.SuccessThreshold {
			cb.failures = 0
			cb.transitionTo(CircuitClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionTo(state CircuitState) {
	if cb.state == state {
		return
	}

	old := cb.state
	cb.state = state
	cb.inFlight = 0

	if cb.config.OnStateChange != nil {
		// Call callback without holding the lock to prevent deadlocks.
		go cb.config.OnStateChange(old, state)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset forces the circuit to closed state, clearing all counters. Use
// when the provider is known to have been fixed externally.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	old := cb.state
	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.inFlight = 0

	if old != CircuitClosed && cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(old, CircuitClosed)
	}
}
