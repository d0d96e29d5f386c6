// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/ai"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/embed"
)

// judgeCacheTTL bounds how long a cached AI verdict is reused.
const judgeCacheTTL = 24 * time.Hour

// newEmbedder builds the embedding chain: memo (backed by the store) over
// the HTTP embedder, or Unavailable when embedding is disabled.
//
//nolint:gocritic // hugeParam: config section passed by value
func newEmbedder(cfg config.EmbeddingConfig, vectors embed.VectorStore, logger zerolog.Logger) embed.Embedder {
	if !cfg.Enabled || cfg.URL == "" {
		logger.Info().Msg("Embedding provider disabled; similarity checks fall back to keywords")
		return embed.Unavailable{}
	}

	httpCfg := embed.DefaultHTTPConfig(cfg.URL)
	if cfg.Model != "" {
		httpCfg.Model = cfg.Model
	}
	httpCfg.APIKey = cfg.APIKey
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}
	if cfg.RequestsPerSecond > 0 {
		httpCfg.RequestsPerSecond = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		httpCfg.Burst = cfg.Burst
	}
	if cfg.MaxRetries >= 0 {
		httpCfg.MaxRetries = cfg.MaxRetries
	}

	return embed.NewMemo(embed.NewHTTPEmbedder(httpCfg, logger), httpCfg.Model, cfg.CacheSize, vectors, logger)
}

// newJudge builds the AI chain: judge over circuit breaker over rate
// limiter over the HTTP provider. It returns nil when AI is disabled.
//
//nolint:gocritic // hugeParam: config section passed by value
func newJudge(cfg config.AIConfig, logger zerolog.Logger) *ai.Judge {
	if !cfg.Enabled || cfg.URL == "" {
		logger.Info().Msg("AI provider disabled; competitor and urgency checks use heuristics")
		return nil
	}

	var provider ai.Provider = ai.NewHTTPProvider(ai.HTTPConfig{
		Name:    "chat",
		URL:     cfg.URL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, logger)
	if cfg.RequestsPerSecond > 0 {
		provider = ai.NewRateLimited(provider, cfg.RequestsPerSecond, cfg.Burst)
	}

	settings := ai.DefaultBreakerSettings()
	if cfg.BreakerTimeout > 0 {
		settings.Timeout = cfg.BreakerTimeout
	}
	provider = ai.NewBreakerProvider(provider, settings, logger)

	return ai.NewJudge(provider, cfg.CacheSize, judgeCacheTTL, logger)
}
