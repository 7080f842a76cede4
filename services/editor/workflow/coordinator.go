// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workflow coordinates the two-phase edit flow: preview proposes
// changes against a snapshot of the document, apply commits a confirmed
// subset of them against the caller's live document.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/redline/pkg/validation"
	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/datatypes"
	"github.com/AleutianAI/redline/services/llm"
	"github.com/AleutianAI/redline/services/patch"
	"github.com/AleutianAI/redline/services/session"
)

// Sentinel errors for workflow outcomes.
var (
	// ErrValidation: the request failed input validation.
	ErrValidation = errors.New("invalid request")

	// ErrDocumentChanged: the live document no longer matches the one
	// that was previewed. The session stays open so the caller can
	// re-preview or retry against the original document.
	ErrDocumentChanged = errors.New("document changed since preview")
)

// Config holds coordinator dependencies and tuning.
type Config struct {
	// Store persists sessions between preview and apply.
	Store session.Store

	// Proposer generates change proposals. Usually an llm.Resilient.
	Proposer llm.Client

	// Limits bounds accepted documents. Zero value means defaults.
	Limits docmap.Limits

	// SessionTTL is the preview session lifetime. Default: 30 minutes.
	SessionTTL time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now is injectable for tests. Default: time.Now.
	Now func() time.Time
}

// Coordinator implements the preview and apply operations.
//
// # Thread Safety
//
// Safe for concurrent use; all mutable state lives in the store.
type Coordinator struct {
	store    session.Store
	proposer llm.Client
	engine   *patch.Engine
	limits   docmap.Limits
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Proposer == nil {
		return nil, errors.New("proposer is required")
	}
	if cfg.Limits == (docmap.Limits{}) {
		cfg.Limits = docmap.DefaultLimits()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Coordinator{
		store:    cfg.Store,
		proposer: cfg.Proposer,
		engine:   patch.New(cfg.Limits, cfg.Now),
		limits:   cfg.Limits,
		ttl:      cfg.SessionTTL,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Preview proposes changes for a document. Nothing is mutated; a session
// is created only when there are concrete changes to confirm.
func (c *Coordinator) Preview(ctx context.Context, req *datatypes.PreviewRequest) (*datatypes.PreviewResponse, error) {
	if err := validation.ValidateInstruction(req.Instruction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	doc, err := docmap.ParseDocument(req.Document)
	if err != nil {
		return nil, err
	}
	entries, err := docmap.Encode(doc, c.limits)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &datatypes.PreviewResponse{
			Changes: []datatypes.ProposedChange{},
			Message: "The document has no editable fields.",
			Status:  datatypes.PreviewNoChanges,
		}, nil
	}

	proposal, err := c.proposer.Propose(ctx, entries, req.Instruction)
	if err != nil {
		return nil, err
	}

	if proposal.Ambiguous {
		suggestions, serr := c.proposer.Suggest(ctx, entries, req.Instruction)
		if serr != nil {
			// Suggestions are best-effort; the ambiguity verdict stands.
			c.logger.Warn("suggestion generation failed", "error", serr)
		}
		msg := proposal.Message
		if msg == "" {
			msg = "The instruction is ambiguous. Please clarify which field to change."
		}
		return &datatypes.PreviewResponse{
			Changes:     []datatypes.ProposedChange{},
			Message:     msg,
			Status:      datatypes.PreviewAmbiguous,
			Suggestions: suggestions,
		}, nil
	}

	if len(proposal.Changes) == 0 {
		msg := proposal.Message
		if msg == "" {
			msg = "The instruction requires no changes."
		}
		return &datatypes.PreviewResponse{
			Changes: []datatypes.ProposedChange{},
			Message: msg,
			Status:  datatypes.PreviewNoChanges,
		}, nil
	}

	fingerprint, err := docmap.Fingerprint(doc)
	if err != nil {
		return nil, err
	}
	id, err := session.NewSessionID()
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		SessionID:           id,
		DocumentFingerprint: fingerprint,
		ProposedChanges:     proposal.Changes,
		Status:              session.StatusOpen,
		CreatedAt:           c.now().UTC(),
		TTL:                 c.ttl,
	}
	if err := c.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	c.logger.Info("preview created session",
		"session_id", id, "changes", len(proposal.Changes))

	msg := proposal.Message
	if msg == "" {
		msg = fmt.Sprintf("Proposed %d change(s). Confirm with apply.", len(proposal.Changes))
	}
	return &datatypes.PreviewResponse{
		SessionID: id,
		Changes:   proposal.Changes,
		Message:   msg,
		Status:    datatypes.PreviewSuccess,
	}, nil
}

// Apply commits a previewed change set against the caller's live
// document. Exactly one apply can win a session; edits that no longer
// match the document are skipped individually rather than failing the
// whole batch.
func (c *Coordinator) Apply(ctx context.Context, req *datatypes.ApplyRequest) (*datatypes.ApplyResponse, error) {
	if err := validation.ValidateSessionID(req.SessionID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	doc, err := docmap.ParseDocument(req.CurrentDocument)
	if err != nil {
		return nil, err
	}

	sess, err := c.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	fingerprint, err := docmap.Fingerprint(doc)
	if err != nil {
		return nil, err
	}
	if fingerprint != sess.DocumentFingerprint {
		return nil, ErrDocumentChanged
	}

	edits := confirmedSubset(sess.ProposedChanges, req.ConfirmedChangeIDs)
	if len(edits) == 0 {
		return nil, fmt.Errorf("%w: no confirmed change ids match the session", ErrValidation)
	}

	if _, err := c.store.TryBeginApply(ctx, req.SessionID); err != nil {
		return nil, err
	}

	modified, outcomes, err := c.engine.Apply(doc, edits)
	if err != nil {
		// Release the claim so the caller can retry.
		if ferr := c.store.FinishApply(ctx, req.SessionID, false); ferr != nil {
			c.logger.Error("failed to release session after apply error",
				"session_id", req.SessionID, "error", ferr)
		}
		return nil, err
	}

	anyApplied := false
	applied := 0
	for _, o := range outcomes {
		if o.Status == datatypes.ChangeApplied {
			anyApplied = true
			applied++
		}
	}
	if err := c.store.FinishApply(ctx, req.SessionID, anyApplied); err != nil {
		c.logger.Error("failed to finalize session",
			"session_id", req.SessionID, "error", err)
	}

	status := patch.BatchStatus(outcomes)
	c.logger.Info("apply finished",
		"session_id", req.SessionID, "status", status,
		"applied", applied, "total", len(outcomes))

	return &datatypes.ApplyResponse{
		ModifiedDocument: modified,
		AppliedChanges:   outcomes,
		Message:          applyMessage(applied, len(outcomes)),
		Status:           status,
	}, nil
}

// Sessions returns admin summaries of live sessions.
func (c *Coordinator) Sessions(ctx context.Context) ([]datatypes.SessionSummary, error) {
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]datatypes.SessionSummary, 0, len(all))
	for _, s := range all {
		out = append(out, datatypes.SessionSummary{
			SessionID:   s.SessionID,
			Status:      string(s.Status),
			ChangeCount: len(s.ProposedChanges),
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
			ExpiresAt:   s.ExpiresAt().Format(time.RFC3339),
		})
	}
	return out, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (c *Coordinator) DeleteSession(ctx context.Context, id string) error {
	if err := validation.ValidateSessionID(id); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return c.store.Delete(ctx, id)
}

// Ready reports whether the coordinator's dependencies are reachable.
func (c *Coordinator) Ready(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// confirmedSubset filters the session's edits down to the confirmed ids.
// An empty confirmation list means every proposed edit. Unknown ids are
// ignored.
func confirmedSubset(edits []datatypes.ProposedChange, confirmed []string) []datatypes.ProposedChange {
	if len(confirmed) == 0 {
		return edits
	}

	want := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		want[id] = struct{}{}
	}

	var out []datatypes.ProposedChange
	for _, e := range edits {
		if _, ok := want[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func applyMessage(applied, total int) string {
	switch {
	case applied == total:
		return fmt.Sprintf("All %d change(s) applied.", total)
	case applied == 0:
		return "No changes could be applied; the document may have been modified."
	default:
		return fmt.Sprintf("Applied %d of %d change(s); the rest were skipped.", applied, total)
	}
}
