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
)

// healthCmd checks a running server's liveness and readiness.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of a running editor server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		var live map[string]any
		if err := client.do(http.MethodGet, "/health", nil, &live); err != nil {
			return fmt.Errorf("server is not healthy: %w", err)
		}

		var ready map[string]any
		if err := client.do(http.MethodGet, "/ready", nil, &ready); err != nil {
			return fmt.Errorf("server is not ready: %w", err)
		}

		fmt.Printf("health: %v\nready:  %v\n", live["status"], ready["status"])
		return nil
	},
}
