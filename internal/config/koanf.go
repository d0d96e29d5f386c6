// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trendscout/config.yaml",
	"/etc/trendscout/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8642,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      3 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:       "/data/trendscout",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Run: RunConfig{
			Concurrency: 8,
			Timeout:     2 * time.Minute,
			MaxSignals:  2000,
		},
		Scoring: ScoringConfig{
			SearchCap:              30,
			SearchDivisor:          50,
			CompetitorCap:          25,
			CompetitorPerMatch:     5,
			CompetitorRecencyBonus: 5,
			CommentCap:             15,
			CommentPerMention:      5,
			CurrentEventPoints:     15,
			TopicCap:               15,
			TopicFactor:            0.15,
			FreshnessWindow:        7 * 24 * time.Hour,
			DecayPeriod:            21 * 24 * time.Hour,
			MinFreshness:           0.25,
			PostTodayThreshold:     85,
			ThisWeekThreshold:      50,
			RecentWindow:           48 * time.Hour,
			MinTopicConfidence:     50,
			AIConfirmation:         true,
			FailOpen:               true,
			DetectEvergreen:        false,
		},
		Evidence: EvidenceConfig{
			ProviderTimeout:     5 * time.Second,
			SameStoryThreshold:  0.80,
			RelatedThreshold:    0.65,
			BorderlineThreshold: 0.60,
			MaxAICallsPerSignal: 5,
			CompetitorLookback:  7 * 24 * time.Hour,
			EventWindow:         72 * time.Hour,
		},
		Cluster: ClusterConfig{
			EmbeddingThreshold: 0.70,
			AIMargin:           0.05,
		},
		Persona: PersonaConfig{
			OutputLimit:      20,
			TopicAffinity:    15,
			KeywordAffinity:  10,
			IncludeUnmatched: false,
		},
		Learning: LearningConfig{
			Enabled:      true,
			Interval:     6 * time.Hour,
			RunOnStartup: false,
			Window:       30 * 24 * time.Hour,
			MinFeedback:  1,
			Timeout:      5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Enabled:           false,
			Model:             "text-embedding-3-small",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			Burst:             1,
			MaxRetries:        3,
			CacheSize:         10000,
		},
		AI: AIConfig{
			Enabled:           false,
			Model:             "gpt-4o-mini",
			Timeout:           20 * time.Second,
			RequestsPerSecond: 1,
			Burst:             1,
			BreakerTimeout:    2 * time.Minute,
			CacheSize:         5000,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, the optional config file
// and environment variables, in that order of precedence (ENV > File >
// Defaults), then validates it.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile loads configuration using the given YAML file instead of
// searching the default paths. Environment variables still apply.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first default
// path that exists, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"cluster.extra_people",
	"cluster.extra_places",
	"cluster.extra_organizations",
}

// processSliceFields converts comma-separated strings to slices for known
// slice keys. Values from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
// Unmapped variables are ignored so the process environment cannot leak
// into the config.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"cors_origins":          "server.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Store
	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_gc_interval": "store.gc_interval",

	// Run
	"run_concurrency": "run.concurrency",
	"run_timeout":     "run.timeout",
	"run_max_signals": "run.max_signals",

	// Scoring
	"scoring_post_today_threshold": "scoring.post_today_threshold",
	"scoring_this_week_threshold":  "scoring.this_week_threshold",
	"scoring_freshness_window":     "scoring.freshness_window",
	"scoring_decay_period":         "scoring.decay_period",
	"scoring_min_freshness":        "scoring.min_freshness",
	"scoring_recent_window":        "scoring.recent_window",
	"scoring_ai_confirmation":      "scoring.ai_confirmation",
	"scoring_fail_open":            "scoring.fail_open",
	"scoring_detect_evergreen":     "scoring.detect_evergreen",

	// Evidence
	"evidence_provider_timeout":     "evidence.provider_timeout",
	"evidence_max_ai_calls":         "evidence.max_ai_calls_per_signal",
	"evidence_competitor_lookback":  "evidence.competitor_lookback",
	"evidence_event_window":         "evidence.event_window",
	"evidence_same_story_threshold": "evidence.same_story_threshold",

	// Cluster
	"cluster_embedding_threshold": "cluster.embedding_threshold",
	"cluster_ai_margin":           "cluster.ai_margin",
	"cluster_extra_people":        "cluster.extra_people",
	"cluster_extra_places":        "cluster.extra_places",
	"cluster_extra_organizations": "cluster.extra_organizations",

	// Persona
	"persona_output_limit":      "persona.output_limit",
	"persona_include_unmatched": "persona.include_unmatched",

	// Learning
	"learning_enabled":        "learning.enabled",
	"learning_interval":       "learning.interval",
	"learning_run_on_startup": "learning.run_on_startup",
	"learning_window":         "learning.window",
	"learning_min_feedback":   "learning.min_feedback",
	"learning_timeout":        "learning.timeout",

	// Embedding
	"embedding_enabled":    "embedding.enabled",
	"embedding_url":        "embedding.url",
	"embedding_model":      "embedding.model",
	"embedding_api_key":    "embedding.api_key",
	"embedding_timeout":    "embedding.timeout",
	"embedding_rps":        "embedding.requests_per_second",
	"embedding_cache_size": "embedding.cache_size",

	// AI
	"ai_enabled":         "ai.enabled",
	"ai_url":             "ai.url",
	"ai_model":           "ai.model",
	"ai_api_key":         "ai.api_key",
	"ai_timeout":         "ai.timeout",
	"ai_rps":             "ai.requests_per_second",
	"ai_breaker_timeout": "ai.breaker_timeout",
	"ai_cache_size":      "ai.cache_size",
}

// envTransformFunc maps an environment variable name to its koanf path,
// or "" to skip it.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - AI_API_KEY -> ai.api_key
//   - LEARNING_WINDOW -> learning.window
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
