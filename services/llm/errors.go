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
	"net"
)

// Sentinel errors for provider failures. Transient errors are worth
// retrying; permanent errors cannot succeed on retry and must not burn
// retry budget.
var (
	// ErrTimeout: the provider did not answer within the attempt deadline.
	ErrTimeout = errors.New("provider timed out")

	// ErrRateLimited: the provider shed load (HTTP 429).
	ErrRateLimited = errors.New("provider rate limited the request")

	// ErrConnection: the provider was unreachable at the network level.
	ErrConnection = errors.New("provider connection failed")

	// ErrUpstream: the provider failed internally (HTTP 5xx).
	ErrUpstream = errors.New("provider internal error")

	// ErrAuth: credentials were rejected (HTTP 401/403).
	ErrAuth = errors.New("provider rejected credentials")

	// ErrMalformedResponse: the provider answered with output that does
	// not parse as a proposal.
	ErrMalformedResponse = errors.New("provider returned malformed response")

	// ErrInvalidModel: the configured model does not exist at the provider.
	ErrInvalidModel = errors.New("provider does not recognize model")
)

// Kind classifies an error for retry purposes.
type Kind int

const (
	// KindTransient failures may succeed on a later attempt.
	KindTransient Kind = iota

	// KindPermanent failures will fail identically on every attempt.
	KindPermanent
)

// Classify decides whether an error is worth retrying.
//
// Unknown errors are treated as permanent: retrying a failure we cannot
// explain wastes budget and hides bugs.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrConnection),
		errors.Is(err, ErrUpstream),
		errors.Is(err, context.DeadlineExceeded):
		return KindTransient

	case errors.Is(err, ErrAuth),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrInvalidModel),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.Canceled):
		return KindPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}
	return KindPermanent
}
