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
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/redline/services/editor/datatypes"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Administer preview sessions on a running server",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live preview sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		var resp struct {
			Sessions []datatypes.SessionSummary `json:"sessions"`
		}
		if err := client.do(http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
			return err
		}
		if len(resp.Sessions) == 0 {
			fmt.Println("no live sessions")
			return nil
		}
		return printJSON(resp.Sessions)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a preview session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		if err := client.do(http.MethodDelete, "/v1/sessions/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
