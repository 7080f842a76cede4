// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// The editor server. Configuration comes from the environment:
//
//	REDLINE_PORT                HTTP port (default 12300)
//	REDLINE_LLM_PROVIDER        openai | ollama (default openai)
//	OPENAI_API_KEY              OpenAI credentials
//	REDLINE_OPENAI_MODEL        OpenAI model override
//	REDLINE_OLLAMA_URL          Ollama server, e.g. http://localhost:11434
//	REDLINE_OLLAMA_MODEL        Ollama model override
//	REDLINE_STORE_PATH          Badger directory (empty = in-memory sessions)
//	REDLINE_SESSION_TTL         preview session lifetime (default 30m)
//	REDLINE_MAX_DOCUMENT_DEPTH  document nesting bound (default 64)
//	REDLINE_MAX_DOCUMENT_BYTES  document size bound (default 5 MiB)
//	REDLINE_RATE_LIMIT          provider requests/sec (0 = unlimited)
//	REDLINE_OTEL_ENDPOINT       OTLP gRPC collector (empty = tracing off)
//	REDLINE_LOG_LEVEL           debug | info | warn | error (default info)
//	REDLINE_LOG_DIR             directory for JSON log files (optional)
//	REDLINE_CONFIG_FILE         optional YAML config overlay
package main

import (
	"context"
	"log"
	"os"

	"github.com/AleutianAI/redline/pkg/logging"
	"github.com/AleutianAI/redline/services/editor"
)

func main() {
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
		log.Fatalf("failed to load configuration: %v", err)
	}

	svc, err := editor.NewService(cfg)
	if err != nil {
		log.Fatalf("failed to assemble the editor service: %v", err)
	}

	if err := svc.Run(context.Background()); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
