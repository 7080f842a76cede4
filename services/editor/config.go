// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editor

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the editor service configuration.
//
// Precedence: defaults < config file (REDLINE_CONFIG_FILE, YAML) < env.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port" validate:"required,numeric"`

	// Provider selects the LLM backend: openai or ollama.
	Provider string `yaml:"provider" validate:"required,oneof=openai ollama"`

	// OpenAIModel overrides the default OpenAI model.
	OpenAIModel string `yaml:"openai_model"`

	// OpenAIBaseURL points at a proxy or compatible server.
	OpenAIBaseURL string `yaml:"openai_base_url" validate:"omitempty,url"`

	// OllamaURL is the Ollama server address.
	OllamaURL string `yaml:"ollama_url" validate:"omitempty,url"`

	// OllamaModel overrides the default Ollama model.
	OllamaModel string `yaml:"ollama_model"`

	// SessionTTL is the preview session lifetime.
	SessionTTL time.Duration `yaml:"session_ttl" validate:"required"`

	// StorePath is the Badger directory. Empty means in-memory sessions.
	StorePath string `yaml:"store_path"`

	// MaxDocumentDepth bounds document nesting.
	MaxDocumentDepth int `yaml:"max_document_depth" validate:"required,min=1,max=1024"`

	// MaxDocumentBytes bounds document size.
	MaxDocumentBytes int `yaml:"max_document_bytes" validate:"required,min=1"`

	// RateLimit caps sustained provider requests per second. 0 disables.
	RateLimit float64 `yaml:"rate_limit" validate:"min=0"`

	// OTelEndpoint is the OTLP gRPC collector address. Empty disables
	// tracing.
	OTelEndpoint string `yaml:"otel_endpoint"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:             "12300",
		Provider:         "openai",
		SessionTTL:       30 * time.Minute,
		MaxDocumentDepth: 64,
		MaxDocumentBytes: 5 << 20,
		RateLimit:        0,
	}
}

// LoadConfig builds the effective configuration from defaults, the
// optional YAML file named by REDLINE_CONFIG_FILE, and environment
// variables, then validates it.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("REDLINE_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SessionTTL < time.Minute || cfg.SessionTTL > 24*time.Hour {
		return cfg, fmt.Errorf("invalid configuration: session_ttl %s outside [1m, 24h]", cfg.SessionTTL)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("REDLINE_PORT", &cfg.Port)
	setString("REDLINE_LLM_PROVIDER", &cfg.Provider)
	setString("REDLINE_OPENAI_MODEL", &cfg.OpenAIModel)
	setString("REDLINE_OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	setString("REDLINE_OLLAMA_URL", &cfg.OllamaURL)
	setString("REDLINE_OLLAMA_MODEL", &cfg.OllamaModel)
	setString("REDLINE_STORE_PATH", &cfg.StorePath)
	setString("REDLINE_OTEL_ENDPOINT", &cfg.OTelEndpoint)

	if v := os.Getenv("REDLINE_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("REDLINE_MAX_DOCUMENT_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDocumentDepth = n
		}
	}
	if v := os.Getenv("REDLINE_MAX_DOCUMENT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDocumentBytes = n
		}
	}
	if v := os.Getenv("REDLINE_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit = f
		}
	}
}
