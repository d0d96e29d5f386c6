// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package ai wraps an optional chat-completion provider and the small
// yes/no judgments the engine asks of it: whether a competitor video
// covers a signal's story, whether two headlines are the same story,
// and whether a high-scoring signal is genuinely urgent.
//
// Every judgment is a strategy with an explicit fallback. Callers treat
// ErrUnavailable and any other error as "no opinion" and keep their
// heuristic answer.
//
// Layering (outermost first):
//
//	Judge -> BreakerProvider -> RateLimited -> HTTPProvider
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("ai: provider unavailable")

// Request is a single prompt.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is a provider's answer.
type Response struct {
	Content string
	Model   string
}

// Provider generates completions.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, req Request) (Response, error)
}

// Unavailable is the provider used when AI is disabled.
type Unavailable struct{}

var _ Provider = Unavailable{}

func (Unavailable) Name() string    { return "none" }
func (Unavailable) Available() bool { return false }

// Generate always returns ErrUnavailable.
func (Unavailable) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}
