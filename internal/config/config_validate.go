// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/trendscout/internal/validation"
)

// Validate checks every section. Messages name the env var or YAML key
// to fix.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStore,
		c.validateRun,
		c.validateScoring,
		c.validateEvidence,
		c.validateCluster,
		c.validatePersona,
		c.validateLearning,
		c.validateEmbedding,
		c.validateAI,
		c.validateTaxonomy,
		c.validatePersonas,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("RUN_CONCURRENCY must be at least 1, got %d", c.Run.Concurrency)
	}
	if c.Run.Timeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT must be positive")
	}
	if c.Run.MaxSignals < 1 {
		return fmt.Errorf("RUN_MAX_SIGNALS must be at least 1, got %d", c.Run.MaxSignals)
	}
	return nil
}

func (c *Config) validateScoring() error {
	s := &c.Scoring
	if s.SearchDivisor <= 0 {
		return fmt.Errorf("scoring.search_divisor must be positive, got %f", s.SearchDivisor)
	}
	if s.MinFreshness < 0 || s.MinFreshness > 1 {
		return fmt.Errorf("SCORING_MIN_FRESHNESS must be between 0 and 1, got %f", s.MinFreshness)
	}
	if s.FreshnessWindow < 0 || s.DecayPeriod <= 0 {
		return fmt.Errorf("SCORING_FRESHNESS_WINDOW must be non-negative and SCORING_DECAY_PERIOD positive")
	}
	if s.ThisWeekThreshold < 0 || s.PostTodayThreshold > 100 || s.ThisWeekThreshold >= s.PostTodayThreshold {
		return fmt.Errorf("tier thresholds must satisfy 0 <= this_week (%v) < post_today (%v) <= 100",
			s.ThisWeekThreshold, s.PostTodayThreshold)
	}
	for name, v := range map[string]float64{
		"search_cap":               s.SearchCap,
		"competitor_cap":           s.CompetitorCap,
		"competitor_per_match":     s.CompetitorPerMatch,
		"competitor_recency_bonus": s.CompetitorRecencyBonus,
		"comment_cap":              s.CommentCap,
		"comment_per_mention":      s.CommentPerMention,
		"current_event_points":     s.CurrentEventPoints,
		"topic_cap":                s.TopicCap,
		"topic_factor":             s.TopicFactor,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.%s must be non-negative, got %f", name, v)
		}
	}
	return nil
}

func (c *Config) validateEvidence() error {
	e := &c.Evidence
	if e.ProviderTimeout <= 0 {
		return fmt.Errorf("EVIDENCE_PROVIDER_TIMEOUT must be positive")
	}
	if !(0 < e.BorderlineThreshold && e.BorderlineThreshold <= e.RelatedThreshold &&
		e.RelatedThreshold <= e.SameStoryThreshold && e.SameStoryThreshold <= 1) {
		return fmt.Errorf("competitor bands must satisfy 0 < borderline (%v) <= related (%v) <= same_story (%v) <= 1",
			e.BorderlineThreshold, e.RelatedThreshold, e.SameStoryThreshold)
	}
	if e.MaxAICallsPerSignal < 0 {
		return fmt.Errorf("EVIDENCE_MAX_AI_CALLS must be non-negative, got %d", e.MaxAICallsPerSignal)
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.EmbeddingThreshold <= 0 || c.Cluster.EmbeddingThreshold > 1 {
		return fmt.Errorf("CLUSTER_EMBEDDING_THRESHOLD must be in (0, 1], got %f", c.Cluster.EmbeddingThreshold)
	}
	if c.Cluster.AIMargin < 0 {
		return fmt.Errorf("CLUSTER_AI_MARGIN must be non-negative, got %f", c.Cluster.AIMargin)
	}
	return nil
}

func (c *Config) validatePersona() error {
	if c.Persona.OutputLimit < 1 {
		return fmt.Errorf("PERSONA_OUTPUT_LIMIT must be at least 1, got %d", c.Persona.OutputLimit)
	}
	if c.Persona.TopicAffinity < 0 || c.Persona.KeywordAffinity < 0 {
		return fmt.Errorf("persona affinities must be non-negative")
	}
	return nil
}

func (c *Config) validateLearning() error {
	l := &c.Learning
	if l.Window <= 0 {
		return fmt.Errorf("LEARNING_WINDOW must be positive")
	}
	if l.MinFeedback < 1 {
		return fmt.Errorf("LEARNING_MIN_FEEDBACK must be at least 1, got %d", l.MinFeedback)
	}
	if l.Enabled && l.Interval <= 0 {
		return fmt.Errorf("LEARNING_INTERVAL must be positive when LEARNING_ENABLED=true")
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("LEARNING_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	e := &c.Embedding
	if !e.Enabled {
		return nil
	}
	if e.URL == "" {
		return fmt.Errorf("EMBEDDING_URL is required when EMBEDDING_ENABLED=true")
	}
	if e.RequestsPerSecond <= 0 {
		return fmt.Errorf("EMBEDDING_RPS must be positive, got %f", e.RequestsPerSecond)
	}
	if e.Burst < 1 {
		return fmt.Errorf("embedding.burst must be at least 1, got %d", e.Burst)
	}
	return nil
}

func (c *Config) validateAI() error {
	a := &c.AI
	if !a.Enabled {
		return nil
	}
	if a.URL == "" {
		return fmt.Errorf("AI_URL is required when AI_ENABLED=true")
	}
	if a.RequestsPerSecond <= 0 {
		return fmt.Errorf("AI_RPS must be positive, got %f", a.RequestsPerSecond)
	}
	if a.Burst < 1 {
		return fmt.Errorf("ai.burst must be at least 1, got %d", a.Burst)
	}
	return nil
}

// validateTaxonomy rejects malformed topics and duplicate ids. An empty
// taxonomy is allowed: every signal is then uncategorized.
func (c *Config) validateTaxonomy() error {
	seen := make(map[string]bool, len(c.Taxonomy))
	for i := range c.Taxonomy {
		t := &c.Taxonomy[i]
		if err := validation.ValidateStruct(t); err != nil {
			return fmt.Errorf("taxonomy[%d]: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("taxonomy[%d]: duplicate topic id %q", i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// validatePersonas rejects malformed personas. A missing or zero quota is
// allowed: the persona is excluded from balancing.
func (c *Config) validatePersonas() error {
	seen := make(map[string]bool, len(c.Personas))
	for i := range c.Personas {
		p := &c.Personas[i]
		if err := validation.ValidateStruct(p); err != nil {
			return fmt.Errorf("personas[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("personas[%d]: duplicate persona id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
