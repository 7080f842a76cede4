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
	"math"
	"time"
)

// RetryConfig controls bounded retry with exponential backoff.
type RetryConfig struct {
	// MaxAttempts bounds total attempts, first call included.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	// Default: 500ms
	BaseDelay time.Duration

	// MaxDelay caps the computed delay.
	// Default: 30s
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay per attempt.
	// Default: 2.0
	BackoffFactor float64

	// Jitter scales each delay by a uniform factor in [0.5, 1.5) to
	// avoid retry storms.
	Jitter bool
}

// DefaultRetryConfig returns sensible production defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// withDefaults fills zero fields with the defaults.
func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	return c
}

// Backoff computes the delay after a failed attempt (1-indexed):
// min(MaxDelay, BaseDelay * BackoffFactor^(attempt-1)), optionally
// jittered by rnd (a source of uniform floats in [0, 1)).
func Backoff(cfg RetryConfig, attempt int, rnd func() float64) time.Duration {
	cfg = cfg.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter && rnd != nil {
		delay *= 0.5 + rnd()
	}
	return time.Duration(delay)
}
