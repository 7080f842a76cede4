// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-facing
// request fields.
//
// Validators here run before any request reaches storage or an LLM
// provider, so malformed input fails with a clear message instead of
// surfacing as a provider or storage error downstream.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Instruction length bounds, in characters.
const (
	MinInstructionLen = 1
	MaxInstructionLen = 1000
)

// sessionIDPattern matches the base64url session tokens the store
// issues. Bounds are generous so older token formats keep working.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,64}$`)

// ValidateInstruction checks a natural-language editing instruction.
//
// Valid instructions:
//   - 1-1000 characters (runes, not bytes)
//   - valid UTF-8
//
// Example:
//
//	if err := validation.ValidateInstruction(req.Instruction); err != nil {
//	    return nil, err
//	}
func ValidateInstruction(instruction string) error {
	if instruction == "" {
		return fmt.Errorf("instruction cannot be empty")
	}
	if !utf8.ValidString(instruction) {
		return fmt.Errorf("instruction is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(instruction); n > MaxInstructionLen {
		return fmt.Errorf("instruction too long: %d characters (max %d)", n, MaxInstructionLen)
	}
	return nil
}

// ValidateSessionID checks a client-supplied session token before it is
// used as a storage key.
//
// Valid tokens are 16-64 URL-safe base64 characters.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id format")
	}
	return nil
}
