// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// Error types for the uniform error envelope.
const (
	ErrorTypeValidation = "validation"
	ErrorTypeLLM        = "llm"
	ErrorTypeSession    = "session"
	ErrorTypeProcessing = "processing"
)

// ErrorBody is the caller-facing error shape. Every failed request
// returns exactly this structure under the "error" key.
type ErrorBody struct {
	Type        string         `json:"type"`
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// ErrorResponse is the envelope wrapping ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewError builds an error envelope.
func NewError(errType, code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Type:    errType,
		Code:    code,
		Message: message,
	}}
}

// WithDetails attaches structured detail to an envelope.
func (e ErrorResponse) WithDetails(details map[string]any) ErrorResponse {
	e.Error.Details = details
	return e
}

// WithSuggestions attaches remediation hints to an envelope.
func (e ErrorResponse) WithSuggestions(suggestions ...string) ErrorResponse {
	e.Error.Suggestions = suggestions
	return e
}
