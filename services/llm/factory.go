// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "fmt"

// Config selects and configures a proposal provider.
type Config struct {
	// Provider is "openai" or "ollama".
	Provider string

	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	Gateway GatewayConfig
}

// New builds the configured provider wrapped in the resilience gateway.
func New(cfg Config) (*Resilient, error) {
	var inner Client
	var err error

	switch cfg.Provider {
	case "openai":
		inner, err = NewOpenAIClient(cfg.OpenAI)
	case "ollama":
		inner, err = NewOllamaClient(cfg.Ollama)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or ollama)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	gw := cfg.Gateway
	if gw.Provider == "" {
		gw.Provider = cfg.Provider
	}
	return NewResilient(inner, gw, nil, nil), nil
}
