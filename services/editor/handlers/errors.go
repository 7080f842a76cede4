// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers for the editor API.
//
// Handlers are thin: they bind the request, call the workflow
// coordinator, and translate coordinator errors into the uniform error
// envelope. All domain decisions live in the coordinator.
package handlers

import (
	"errors"
	"net/http"

	"github.com/AleutianAI/redline/services/docmap"
	"github.com/AleutianAI/redline/services/editor/datatypes"
	"github.com/AleutianAI/redline/services/editor/workflow"
	"github.com/AleutianAI/redline/services/llm"
	"github.com/AleutianAI/redline/services/session"
)

// MapError translates a workflow error into an HTTP status and the
// uniform error envelope.
//
// Processing errors deliberately carry a generic message; the full
// error is logged server-side against the correlation id.
func MapError(err error, requestID string) (int, datatypes.ErrorResponse) {
	switch {
	// ---- validation ----
	case errors.Is(err, workflow.ErrValidation):
		return http.StatusBadRequest, datatypes.NewError(
			datatypes.ErrorTypeValidation, "invalid_request", err.Error())

	case errors.Is(err, docmap.ErrInvalidDocument):
		return http.StatusBadRequest, datatypes.NewError(
			datatypes.ErrorTypeValidation, "invalid_document",
			"The document is not valid JSON.")

	case errors.Is(err, docmap.ErrDocumentTooDeep):
		return http.StatusBadRequest, datatypes.NewError(
			datatypes.ErrorTypeValidation, "document_too_deep",
			"The document exceeds the supported nesting depth.")

	case errors.Is(err, docmap.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, datatypes.NewError(
			datatypes.ErrorTypeValidation, "document_too_large",
			"The document exceeds the supported size.")

	// ---- llm ----
	case errors.Is(err, llm.ErrCircuitOpen):
		return http.StatusServiceUnavailable, datatypes.NewError(
			datatypes.ErrorTypeLLM, "provider_circuit_open",
			"The language model provider is temporarily unavailable.").
			WithSuggestions("Retry in a few minutes.")

	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrInvalidModel):
		return http.StatusBadGateway, datatypes.NewError(
			datatypes.ErrorTypeLLM, "provider_misconfigured",
			"The language model provider rejected the request.").
			WithDetails(map[string]any{"request_id": requestID})

	case errors.Is(err, llm.ErrTimeout),
		errors.Is(err, llm.ErrRateLimited),
		errors.Is(err, llm.ErrConnection),
		errors.Is(err, llm.ErrUpstream),
		errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusBadGateway, datatypes.NewError(
			datatypes.ErrorTypeLLM, "provider_error",
			"The language model provider failed to produce a proposal.").
			WithSuggestions("Retry the request.")

	// ---- session ----
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, datatypes.NewError(
			datatypes.ErrorTypeSession, "session_not_found",
			"The session does not exist or has expired. Run preview again.")

	case errors.Is(err, session.ErrConcurrentApply):
		return http.StatusConflict, datatypes.NewError(
			datatypes.ErrorTypeSession, "concurrent_apply",
			"This session was already applied or is being applied by another request.")

	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, datatypes.NewError(
			datatypes.ErrorTypeSession, "session_invalid",
			"The session is no longer usable. Run preview again.")

	case errors.Is(err, workflow.ErrDocumentChanged):
		return http.StatusConflict, datatypes.NewError(
			datatypes.ErrorTypeSession, "document_changed",
			"The document has changed since preview. Run preview again.").
			WithSuggestions("Re-run preview against the current document.")

	case errors.Is(err, session.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, datatypes.NewError(
			datatypes.ErrorTypeProcessing, "storage_unavailable",
			"Session storage is temporarily unavailable.").
			WithDetails(map[string]any{"request_id": requestID})

	// ---- processing ----
	default:
		return http.StatusInternalServerError, datatypes.NewError(
			datatypes.ErrorTypeProcessing, "internal_error",
			"An internal error occurred.").
			WithDetails(map[string]any{"request_id": requestID})
	}
}
