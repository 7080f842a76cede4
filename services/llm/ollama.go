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

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/redline/services/docmap"
)

var tracer = otel.Tracer("redline.llm.ollama")

// OllamaConfig configures the Ollama-backed proposal provider.
type OllamaConfig struct {
	// BaseURL is the Ollama server, e.g. "http://localhost:11434".
	BaseURL string

	// Model is the local model name. Default: llama3.1.
	Model string
}

// OllamaClient proposes document changes via a local Ollama server.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// Ollama API request/response structures.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ollama base URL not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
		slog.Warn("Ollama model not set, defaulting to llama3.1")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	slog.Info("Initializing Ollama proposal client", "base_url", baseURL, "model", model)
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
		model:      model,
	}, nil
}

// Propose implements the Client interface.
func (o *OllamaClient) Propose(ctx context.Context, entries []docmap.MapEntry,
	instruction string) (*Proposal, error) {

	ctx, span := tracer.Start(ctx, "OllamaClient.Propose")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", o.model),
		attribute.Int("llm.entry_count", len(entries)),
	)

	raw, err := o.generate(ctx, proposalSystemPrompt, entries, instruction)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parseProposal(raw, entries)
}

// Suggest implements the Client interface.
func (o *OllamaClient) Suggest(ctx context.Context, entries []docmap.MapEntry,
	instruction string) ([]string, error) {

	ctx, span := tracer.Start(ctx, "OllamaClient.Suggest")
	defer span.End()

	raw, err := o.generate(ctx, suggestionSystemPrompt, entries, instruction)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parseSuggestions(raw)
}

func (o *OllamaClient) generate(ctx context.Context, system string,
	entries []docmap.MapEntry, instruction string) (string, error) {

	prompt, err := buildProposalPrompt(entries, instruction)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", classifyOllamaError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrConnection, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyOllamaStatus(resp.StatusCode, payload)
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.Response, nil
}

func classifyOllamaError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

func classifyOllamaStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, status, msg)
	}
}
