// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// HTTPConfig configures an OpenAI-compatible chat completions endpoint.
type HTTPConfig struct {
	Name    string
	URL     string
	Model   string
	APIKey  string
	Timeout time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// HTTPProvider calls a chat completions endpoint.
type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
	logger zerolog.Logger
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPProvider(cfg HTTPConfig, logger zerolog.Logger) *HTTPProvider {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "ai_provider").Str("provider", cfg.Name).Logger(),
	}
}

func (p *HTTPProvider) Name() string { return p.cfg.Name }

// Available reports whether an endpoint is configured.
func (p *HTTPProvider) Available() bool { return p.cfg.URL != "" }

// Generate sends req and returns the first choice.
func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !p.Available() {
		return Response{}, ErrUnavailable
	}

	body := chatRequest{
		Model:     p.cfg.Model,
		MaxTokens: req.MaxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.Debug().Int("status", resp.StatusCode).Msg("Provider returned error status")
		return Response{}, fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Response{}, fmt.Errorf("parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Response{}, fmt.Errorf("response has no choices")
	}

	return Response{Content: out.Choices[0].Message.Content, Model: out.Model}, nil
}
