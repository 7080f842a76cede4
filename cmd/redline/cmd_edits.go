// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/redline/services/editor/datatypes"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	previewFile        string // Document to preview against
	previewInstruction string // Natural-language instruction

	applySession   string   // Session id from a prior preview
	applyFile      string   // Current document
	applyConfirmed []string // Confirmed change ids (empty = all)
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// previewCmd drives the first phase of the workflow from a file.
//
// # Examples
//
//	redline preview -f doc.json -i "change the email to bob@example.com"
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Propose edits for a JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(previewFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		client := newAPIClient()
		var resp datatypes.PreviewResponse
		err = client.do(http.MethodPost, "/v1/edits/preview", datatypes.PreviewRequest{
			Document:    json.RawMessage(doc),
			Instruction: previewInstruction,
		}, &resp)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// applyCmd commits a previewed change set.
//
// # Examples
//
//	redline apply -s <session-id> -f doc.json
//	redline apply -s <session-id> -f doc.json -c c0 -c c2
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a previously previewed change set",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(applyFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		client := newAPIClient()
		var resp datatypes.ApplyResponse
		err = client.do(http.MethodPost, "/v1/edits/apply", datatypes.ApplyRequest{
			SessionID:          applySession,
			ConfirmedChangeIDs: applyConfirmed,
			CurrentDocument:    json.RawMessage(doc),
		}, &resp)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	previewCmd.Flags().StringVarP(&previewFile, "file", "f", "",
		"Path to the JSON document (required)")
	previewCmd.Flags().StringVarP(&previewInstruction, "instruction", "i", "",
		"Natural-language editing instruction (required)")
	_ = previewCmd.MarkFlagRequired("file")
	_ = previewCmd.MarkFlagRequired("instruction")

	applyCmd.Flags().StringVarP(&applySession, "session", "s", "",
		"Session id returned by preview (required)")
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "",
		"Path to the current JSON document (required)")
	applyCmd.Flags().StringArrayVarP(&applyConfirmed, "confirm", "c", nil,
		"Confirmed change id (repeatable; default all)")
	_ = applyCmd.MarkFlagRequired("session")
	_ = applyCmd.MarkFlagRequired("file")
}
