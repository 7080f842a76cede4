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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/redline/services/docmap"
)

// GatewayConfig configures the resilience wrapper around a provider.
type GatewayConfig struct {
	// Provider names the wrapped provider for log and error context.
	Provider string

	// Retry controls bounded retry with exponential backoff.
	Retry RetryConfig

	// Breaker controls the per-provider circuit breaker.
	Breaker BreakerConfig

	// AttemptTimeout bounds a single provider call. Default: 60s.
	AttemptTimeout time.Duration

	// RateLimit caps sustained requests per second to the provider.
	// Zero means no rate limiting.
	RateLimit float64

	// RateBurst is the rate limiter burst size. Default: 1 when
	// RateLimit is set.
	RateBurst int

	// OnCallDuration reports the wall-clock seconds one logical call
	// took, retries and backoff included. Optional; used for latency
	// metrics.
	OnCallDuration func(op string, seconds float64)
}

// Resilient decorates a Client with retry, circuit breaking, per-attempt
// timeouts, and rate limiting.
//
// # Description
//
// Every provider call flows through the same pipeline: wait for a rate
// limiter slot, check the circuit breaker, run the call under a
// per-attempt deadline, record the outcome, and retry transient
// failures with exponential backoff. Permanent failures (auth, bad
// model, malformed responses) are never retried.
//
// # Thread Safety
//
// Resilient is safe for concurrent use. The breaker and limiter carry
// their own synchronization; everything else is read-only after New.
type Resilient struct {
	name    string
	inner   Client
	retry   RetryConfig
	timeout time.Duration
	breaker *CircuitBreaker
	limiter *rate.Limiter
	clock   Clock
	rnd     func() float64
	observe func(op string, seconds float64)
	logger  *slog.Logger
}

// NewResilient wraps a provider client. A nil clock means wall time and
// a nil rnd means math/rand.
func NewResilient(inner Client, cfg GatewayConfig, clock Clock, rnd func() float64) *Resilient {
	if clock == nil {
		clock = SystemClock()
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	name := cfg.Provider
	if name == "" {
		name = "llm"
	}

	return &Resilient{
		name:    name,
		inner:   inner,
		retry:   cfg.Retry.withDefaults(),
		timeout: timeout,
		breaker: NewCircuitBreaker(cfg.Breaker, clock),
		limiter: limiter,
		clock:   clock,
		rnd:     rnd,
		observe: cfg.OnCallDuration,
		logger:  slog.Default().With("provider", name),
	}
}

// Propose implements the Client interface.
func (r *Resilient) Propose(ctx context.Context, entries []docmap.MapEntry,
	instruction string) (*Proposal, error) {

	return run(ctx, r, "propose", func(ctx context.Context) (*Proposal, error) {
		return r.inner.Propose(ctx, entries, instruction)
	})
}

// Suggest implements the Client interface.
func (r *Resilient) Suggest(ctx context.Context, entries []docmap.MapEntry,
	instruction string) ([]string, error) {

	return run(ctx, r, "suggest", func(ctx context.Context) ([]string, error) {
		return r.inner.Suggest(ctx, entries, instruction)
	})
}

// BreakerState exposes the breaker state for health reporting.
func (r *Resilient) BreakerState() CircuitState {
	return r.breaker.State()
}

// run drives one logical call through the resilience pipeline. The
// breaker sees every attempt outcome; only transient failures are
// retried.
func run[T any](ctx context.Context, r *Resilient, op string,
	call func(ctx context.Context) (T, error)) (T, error) {

	var zero T

	if r.observe != nil {
		start := r.clock.Now()
		defer func() {
			r.observe(op, r.clock.Now().Sub(start).Seconds())
		}()
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if !r.breaker.Allow() {
			r.logger.Warn("Circuit open, rejecting call", "op", op)
			return zero, ErrCircuitOpen
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := call(attemptCtx)
		cancel()

		// A caller disconnect is not a provider failure: return the
		// admitted slot without feeding the breaker's counters.
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			r.breaker.Release()
			return zero, err
		}

		r.breaker.Record(err)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if Classify(err) == KindPermanent {
			r.logger.Warn("Permanent provider failure, not retrying",
				"op", op, "attempt", attempt, "error", err)
			return zero, err
		}
		if attempt == r.retry.MaxAttempts {
			break
		}

		delay := Backoff(r.retry, attempt, r.rnd)
		r.logger.Info("Transient provider failure, backing off",
			"op", op, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-r.clock.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("%s: %d attempts exhausted: %w", r.name, r.retry.MaxAttempts, lastErr)
}
