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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/redline/services/docmap"
)

// OpenAIConfig configures the OpenAI-backed proposal provider.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. If empty, the
	// constructor falls back to OPENAI_API_KEY and then to the container
	// secret file.
	APIKey string

	// Model is the chat model used for proposals. Default: gpt-4o-mini.
	Model string

	// BaseURL overrides the API endpoint (proxies, compatible servers).
	BaseURL string
}

// OpenAIClient proposes document changes via the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		raw, err := os.ReadFile(secretPath)
		if err != nil {
			slog.Error("OpenAI API key not configured and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		apiKey = strings.TrimSpace(string(raw))
		slog.Info("Read the OpenAI API key from container secrets")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OpenAI model not set, defaulting to gpt-4o-mini")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	slog.Info("Initializing OpenAI proposal client", "model", model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Propose implements the Client interface.
func (o *OpenAIClient) Propose(ctx context.Context, entries []docmap.MapEntry,
	instruction string) (*Proposal, error) {

	raw, err := o.complete(ctx, proposalSystemPrompt, entries, instruction)
	if err != nil {
		return nil, err
	}
	return parseProposal(raw, entries)
}

// Suggest implements the Client interface.
func (o *OpenAIClient) Suggest(ctx context.Context, entries []docmap.MapEntry,
	instruction string) ([]string, error) {

	raw, err := o.complete(ctx, suggestionSystemPrompt, entries, instruction)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(raw)
}

func (o *OpenAIClient) complete(ctx context.Context, system string,
	entries []docmap.MapEntry, instruction string) (string, error) {

	prompt, err := buildProposalPrompt(entries, instruction)
	if err != nil {
		return "", err
	}

	slog.Debug("Requesting proposal via OpenAI", "model", o.model, "entries", len(entries))
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps SDK errors onto the package sentinels so the
// retry layer can tell transient from permanent failures.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case apiErr.HTTPStatusCode == 404:
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

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
