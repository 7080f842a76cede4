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
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/redline/pkg/logging"
	"github.com/AleutianAI/redline/services/editor"
)

// serveCmd runs the editor server in the foreground.
//
// # Description
//
// Reads configuration from the environment (and the optional
// REDLINE_CONFIG_FILE overlay), assembles the service, and serves until
// interrupted. Identical to running cmd/editor directly; it exists so a
// single binary covers both operations and serving.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor server in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(logging.Config{
			Level:   logging.ParseLevel(os.Getenv("REDLINE_LOG_LEVEL")),
			LogDir:  os.Getenv("REDLINE_LOG_DIR"),
			Service: "editor",
			JSON:    true,
		})
		defer logger.Close()
		logger.SetAsDefault()

		cfg, err := editor.LoadConfig()
		if err != nil {
			return err
		}
		svc, err := editor.NewService(cfg)
		if err != nil {
			return err
		}
		return svc.Run(context.Background())
	},
}
