// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch applies a proposed change set to a document and reports a
// per-edit outcome instead of failing the batch as a whole.
//
// The engine only ever changes scalar leaf values. Structural edits
// (adding or removing keys or array elements) are rejected upstream; any
// that slip through surface here as skipped_not_found.
package patch

import (
	"fmt"
	"time"

	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/datatypes"
)

// Engine applies change sets. The zero value is not usable; construct
// with New.
type Engine struct {
	limits docmap.Limits
	now    func() time.Time
}

// New creates a patch engine.
//
// # Inputs
//
//   - limits: codec guardrails used when flattening the document.
//   - now: timestamp source for applied_at; nil means time.Now.
func New(limits docmap.Limits, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{limits: limits, now: now}
}

// Apply produces a new document with the given edits written in.
//
// # Description
//
// The document is flattened, each edit is resolved against a path index,
// and the surviving values are decoded back over the original shape.
// Edits are independent: one edit being stale or unresolvable never
// blocks the others. The input document is never mutated.
//
// Per-edit outcomes:
//
//   - applied: leaf existed, current value matched, proposed value coerced.
//   - skipped_not_found: no leaf at the edit's path.
//   - skipped_stale: the leaf's value differs from the edit's
//     current_value (the document moved since the edit was proposed).
//   - skipped_type_mismatch: the proposed value does not parse as the
//     leaf's original JSON type.
//
// # Outputs
//
//   - any: the new document tree (the input shape with applied values).
//   - []datatypes.AppliedChange: one outcome per edit, in input order.
//   - error: codec failures only; per-edit problems are outcomes, not
//     errors.
func (e *Engine) Apply(doc any, edits []datatypes.ProposedChange) (any, []datatypes.AppliedChange, error) {
	entries, err := docmap.Encode(doc, e.limits)
	if err != nil {
		return nil, nil, fmt.Errorf("flatten document: %w", err)
	}

	index := make(map[string]*docmap.MapEntry, len(entries))
	for i := range entries {
		index[docmap.PathKey(entries[i].Path)] = &entries[i]
	}

	outcomes := make([]datatypes.AppliedChange, 0, len(edits))
	for _, edit := range edits {
		outcome := datatypes.AppliedChange{
			ID:   edit.ID,
			Path: edit.Path,
		}

		entry, ok := index[docmap.PathKey(edit.Path)]
		switch {
		case !ok:
			outcome.Status = datatypes.ChangeSkippedNotFound

		case entry.Value != edit.CurrentValue:
			outcome.Status = datatypes.ChangeSkippedStale
			outcome.OldValue = entry.Value

		default:
			if _, cerr := docmap.Coerce(edit.ProposedValue, entry.TypeHint); cerr != nil {
				outcome.Status = datatypes.ChangeSkippedTypeMismatch
				outcome.OldValue = entry.Value
				break
			}
			outcome.Status = datatypes.ChangeApplied
			outcome.OldValue = entry.Value
			outcome.NewValue = edit.ProposedValue
			outcome.AppliedAt = e.now()
			entry.Value = edit.ProposedValue
		}

		outcomes = append(outcomes, outcome)
	}

	newDoc, err := docmap.Decode(doc, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild document: %w", err)
	}
	return newDoc, outcomes, nil
}

// BatchStatus collapses per-edit outcomes into the response status:
// success iff every edit applied, failed iff none did, partial_success
// otherwise. An empty batch counts as success.
func BatchStatus(outcomes []datatypes.AppliedChange) string {
	applied := 0
	for _, o := range outcomes {
		if o.Status == datatypes.ChangeApplied {
			applied++
		}
	}
	switch {
	case applied == len(outcomes):
		return datatypes.ApplySuccess
	case applied == 0:
		return datatypes.ApplyFailed
	default:
		return datatypes.ApplyPartialSuccess
	}
}
