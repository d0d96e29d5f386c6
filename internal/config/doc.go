// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package config loads Trendscout configuration with Koanf v2.
//
// Sources are layered, highest priority last: built-in defaults, an optional
// YAML file (CONFIG_PATH, ./config.yaml or /etc/trendscout/config.yaml) and
// environment variables mapped through an explicit table.
//
// The YAML file is where channel data lives:
//
//	taxonomy:
//	  - id: us_domestic_finance
//	    names: ["US Domestic Finance"]
//	    keywords: ["credit card", "interest rates", "mortgage"]
//	  - id: energy
//	    keywords: ["oil", "crude", "opec"]
//	personas:
//	  - id: investor
//	    weekly_quota: 5
//	    match_rules:
//	      topic_ids: ["us_domestic_finance"]
//	      keywords: ["stocks"]
//
// Scalar settings can be overridden by environment, e.g. HTTP_PORT,
// LOG_LEVEL, STORE_PATH, AI_ENABLED, EMBEDDING_URL, LEARNING_INTERVAL.
package config
