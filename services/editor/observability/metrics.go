// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the editor
// service.
//
// # Description
//
// Metrics cover the two-phase edit workflow end to end:
//   - Request counters by endpoint and status
//   - Proposal latency histograms (the LLM round trip dominates)
//   - Per-edit apply outcomes
//   - Session lifecycle counters
//   - Provider circuit breaker state
//
// # Integration
//
// Metrics are exposed on /metrics. Scrape with Prometheus.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "redline"

// EditorMetrics holds all Prometheus metrics for the editor service.
// Initialize once at startup via InitMetrics().
type EditorMetrics struct {
	// RequestsTotal counts API requests.
	// Labels: endpoint (preview, apply, sessions), status (success,
	// no_changes, ambiguous, partial_success, failed, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request latency.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// ProposalDurationSeconds measures the LLM proposal round trip.
	// Labels: provider
	ProposalDurationSeconds *prometheus.HistogramVec

	// EditOutcomesTotal counts per-edit apply outcomes.
	// Labels: outcome (applied, skipped_stale, skipped_type_mismatch,
	// skipped_not_found)
	EditOutcomesTotal *prometheus.CounterVec

	// SessionsTotal counts session lifecycle events.
	// Labels: event (created, applied, reopened, deleted)
	SessionsTotal *prometheus.CounterVec

	// BreakerState reports the provider circuit breaker state.
	// 0 = closed, 1 = open, 2 = half-open. Labels: provider
	BreakerState *prometheus.GaugeVec
}

// DefaultMetrics is the singleton instance. Initialized by InitMetrics().
var DefaultMetrics *EditorMetrics

// InitMetrics creates and registers all editor metrics. Call once at
// startup; subsequent calls return the existing instance.
func InitMetrics() *EditorMetrics {
	if DefaultMetrics != nil {
		return DefaultMetrics
	}

	DefaultMetrics = &EditorMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "API requests by endpoint and status.",
		}, []string{"endpoint", "status"}),

		RequestDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		ProposalDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "proposal_duration_seconds",
			Help:      "LLM proposal round-trip latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),

		EditOutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "edit_outcomes_total",
			Help:      "Per-edit apply outcomes.",
		}, []string{"outcome"}),

		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_total",
			Help:      "Session lifecycle events.",
		}, []string{"event"}),

		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "breaker_state",
			Help:      "Provider circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"provider"}),
	}
	return DefaultMetrics
}

// RecordRequest is a nil-safe counter increment for handlers.
func (m *EditorMetrics) RecordRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordSessionEvent is a nil-safe session event increment.
func (m *EditorMetrics) RecordSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(event).Inc()
}

// RecordEditOutcome is a nil-safe per-edit outcome increment.
func (m *EditorMetrics) RecordEditOutcome(outcome string) {
	if m == nil {
		return
	}
	m.EditOutcomesTotal.WithLabelValues(outcome).Inc()
}
