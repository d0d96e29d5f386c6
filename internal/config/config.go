// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/trendscout/internal/models"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2), later layers win:
//  1. Defaults: built-in values for every setting
//  2. Config file: optional YAML file (config.yaml), the usual home of the
//     channel taxonomy and personas
//  3. Environment variables: override any scalar setting
//
// Sections:
//
//   - Server, Logging, Store: process infrastructure
//   - Run, Scoring, Evidence, Cluster, Persona: the scoring pass
//   - Learning: the scheduled feedback learning loop
//   - Embedding, AI: optional upstream providers, both fail open
//   - Taxonomy, Personas: channel data, read-only to the engine
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    return fmt.Errorf("load config: %w", err)
//	}
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Run       RunConfig       `koanf:"run"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Evidence  EvidenceConfig  `koanf:"evidence"`
	Cluster   ClusterConfig   `koanf:"cluster"`
	Persona   PersonaConfig   `koanf:"persona"`
	Learning  LearningConfig  `koanf:"learning"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	AI        AIConfig        `koanf:"ai"`

	// Taxonomy is the ordered topic list. Order breaks matching ties.
	Taxonomy []models.TopicDefinition `koanf:"taxonomy"`
	// Personas are the audience segments with weekly quotas.
	Personas []models.Persona `koanf:"personas"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	// Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port is the HTTP port.
	// Default: 8642
	Port int `koanf:"port"`

	// ReadTimeout bounds reading a request.
	// Default: 15s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a response. Run requests can take a while.
	// Default: 3m
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables limiting.
	// Default: 120
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitWindow is the rate limiting window.
	// Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed origins (comma-separated in env).
	// Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller adds file:line to log lines.
	// Default: false
	Caller bool `koanf:"caller"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the badger data directory.
	// Default: /data/trendscout
	Path string `koanf:"path"`

	// InMemory keeps everything in memory (tests, dry runs). Nothing survives a restart.
	// Default: false
	InMemory bool `koanf:"in_memory"`

	// GCInterval runs badger value log GC periodically. Zero disables it.
	// Default: 10m
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RunConfig holds settings for one scoring run.
type RunConfig struct {
	// Concurrency bounds how many signals are scored in parallel.
	// Default: 8
	Concurrency int `koanf:"concurrency"`

	// Timeout bounds a whole run.
	// Default: 2m
	Timeout time.Duration `koanf:"timeout"`

	// MaxSignals caps the batch size accepted per run.
	// Default: 2000
	MaxSignals int `koanf:"max_signals"`
}

// ScoringConfig holds Multi-Signal Scorer settings.
type ScoringConfig struct {
	// SearchCap and SearchDivisor: search contribution = min(cap, volume / divisor).
	// Default: 30, 50
	SearchCap     float64 `koanf:"search_cap"`
	SearchDivisor float64 `koanf:"search_divisor"`

	// CompetitorCap, CompetitorPerMatch and CompetitorRecencyBonus shape the
	// competitor contribution.
	// Default: 25, 5, 5
	CompetitorCap          float64 `koanf:"competitor_cap"`
	CompetitorPerMatch     float64 `koanf:"competitor_per_match"`
	CompetitorRecencyBonus float64 `koanf:"competitor_recency_bonus"`

	// CommentCap and CommentPerMention shape the audience comment contribution.
	// Default: 15, 5
	CommentCap        float64 `koanf:"comment_cap"`
	CommentPerMention float64 `koanf:"comment_per_mention"`

	// CurrentEventPoints is awarded when a calendar event is near.
	// Default: 15
	CurrentEventPoints float64 `koanf:"current_event_points"`

	// TopicCap and TopicFactor: topic contribution = min(cap, confidence * factor).
	// Default: 15, 0.15
	TopicCap    float64 `koanf:"topic_cap"`
	TopicFactor float64 `koanf:"topic_factor"`

	// FreshnessWindow is the age before decay starts.
	// Default: 168h (7 days)
	FreshnessWindow time.Duration `koanf:"freshness_window"`

	// DecayPeriod is how long decay takes to reach MinFreshness.
	// Default: 504h (21 days)
	DecayPeriod time.Duration `koanf:"decay_period"`

	// MinFreshness is the freshness floor.
	// Default: 0.25
	MinFreshness float64 `koanf:"min_freshness"`

	// PostTodayThreshold and ThisWeekThreshold are the tier cut-offs.
	// Default: 85, 50
	PostTodayThreshold float64 `koanf:"post_today_threshold"`
	ThisWeekThreshold  float64 `koanf:"this_week_threshold"`

	// RecentWindow is the breaking-news recency required for post_today.
	// Default: 48h
	RecentWindow time.Duration `koanf:"recent_window"`

	// MinTopicConfidence is the "clean topic match" bar for post_today.
	// Default: 50
	MinTopicConfidence float64 `koanf:"min_topic_confidence"`

	// AIConfirmation asks the AI provider to confirm post_today candidates.
	// Default: true (only effective when ai.enabled)
	AIConfirmation bool `koanf:"ai_confirmation"`

	// FailOpen keeps post_today when the AI confirmation is unavailable.
	// Default: true
	FailOpen bool `koanf:"fail_open"`

	// DetectEvergreen marks unflagged signals evergreen by phrase heuristics.
	// Default: false
	DetectEvergreen bool `koanf:"detect_evergreen"`
}

// EvidenceConfig holds Evidence Collector settings.
type EvidenceConfig struct {
	// ProviderTimeout bounds each provider call.
	// Default: 5s
	ProviderTimeout time.Duration `koanf:"provider_timeout"`

	// SameStoryThreshold, RelatedThreshold and BorderlineThreshold are the
	// competitor similarity bands.
	// Default: 0.80, 0.65, 0.60
	SameStoryThreshold  float64 `koanf:"same_story_threshold"`
	RelatedThreshold    float64 `koanf:"related_threshold"`
	BorderlineThreshold float64 `koanf:"borderline_threshold"`

	// MaxAICallsPerSignal caps secondary confirmations per signal.
	// Default: 5
	MaxAICallsPerSignal int `koanf:"max_ai_calls_per_signal"`

	// CompetitorLookback limits competitor videos to recent uploads.
	// Default: 168h
	CompetitorLookback time.Duration `koanf:"competitor_lookback"`

	// EventWindow is how close a calendar event must be to count.
	// Default: 72h
	EventWindow time.Duration `koanf:"event_window"`
}

// ClusterConfig holds Similarity Clusterer settings.
type ClusterConfig struct {
	// EmbeddingThreshold resolves single-person borderline pairs.
	// Default: 0.70
	EmbeddingThreshold float64 `koanf:"embedding_threshold"`

	// AIMargin asks the AI judge when similarity is within this margin of
	// the threshold. Zero disables the tie-break.
	// Default: 0.05
	AIMargin float64 `koanf:"ai_margin"`

	// ExtraPeople, ExtraPlaces, ExtraOrganizations extend the entity lexicon.
	ExtraPeople        []string `koanf:"extra_people"`
	ExtraPlaces        []string `koanf:"extra_places"`
	ExtraOrganizations []string `koanf:"extra_organizations"`
}

// PersonaConfig holds Persona Quota Balancer settings.
type PersonaConfig struct {
	// OutputLimit is the size of the ranked list.
	// Default: 20
	OutputLimit int `koanf:"output_limit"`

	// TopicAffinity and KeywordAffinity weight persona matching.
	// Default: 15, 10
	TopicAffinity   int `koanf:"topic_affinity"`
	KeywordAffinity int `koanf:"keyword_affinity"`

	// IncludeUnmatched lets candidates that match no persona through
	// unassigned. Off, every selected candidate counts against a quota.
	// Default: false
	IncludeUnmatched bool `koanf:"include_unmatched"`
}

// LearningConfig holds Feedback Learning Loop settings.
type LearningConfig struct {
	// Enabled runs the loop on a schedule. Manual runs via the API always work.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Interval between scheduled runs.
	// Default: 6h
	Interval time.Duration `koanf:"interval"`

	// RunOnStartup runs once when the service starts.
	// Default: false
	RunOnStartup bool `koanf:"run_on_startup"`

	// Window is the rolling feedback window.
	// Default: 720h (30 days)
	Window time.Duration `koanf:"window"`

	// MinFeedback is the minimum events a topic needs to be reweighted.
	// Default: 1
	MinFeedback int `koanf:"min_feedback"`

	// Timeout bounds one learning run.
	// Default: 5m
	Timeout time.Duration `koanf:"timeout"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	// Enabled turns on the HTTP embedder. When off, embedding-based checks
	// are treated as unavailable.
	// Default: false
	Enabled bool `koanf:"enabled"`

	// URL is an OpenAI-compatible /v1/embeddings endpoint.
	URL string `koanf:"url"`

	// Model name sent with each request.
	// Default: text-embedding-3-small
	Model string `koanf:"model"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// Timeout per HTTP request.
	// Default: 10s
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst throttle upstream calls.
	// Default: 2, 1
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// MaxRetries on 429 and 5xx responses.
	// Default: 3
	MaxRetries int `koanf:"max_retries"`

	// CacheSize is the in-process memo size. Vectors are also persisted.
	// Default: 10000
	CacheSize int `koanf:"cache_size"`
}

// AIConfig holds the AI classifier provider settings.
type AIConfig struct {
	// Enabled turns on the HTTP chat provider.
	// Default: false
	Enabled bool `koanf:"enabled"`

	// URL is an OpenAI-compatible /v1/chat/completions endpoint.
	URL string `koanf:"url"`

	// Model name sent with each request.
	// Default: gpt-4o-mini
	Model string `koanf:"model"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// Timeout per HTTP request.
	// Default: 20s
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst throttle upstream calls.
	// Default: 1, 1
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// BreakerTimeout is how long the circuit stays open.
	// Default: 2m
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// CacheSize bounds memoized answers.
	// Default: 5000
	CacheSize int `koanf:"cache_size"`
}
