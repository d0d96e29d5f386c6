// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/trendscout/internal/cluster"
	"github.com/tomtom215/trendscout/internal/evidence"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/scoring"
	"github.com/tomtom215/trendscout/internal/topic"
)

// Skip reasons recorded for signals left out of a run.
const (
	SkipMissingTitle   = "missing_title"
	SkipInvalid        = "invalid"
	SkipDuplicateID    = "duplicate_id"
	SkipTerminalStatus = "terminal_status"
)

// RunRequest is one batch of signals plus the collaborator data the run
// needs. Taxonomy and Personas override the configured ones when set.
type RunRequest struct {
	Signals  []models.Signal          `json:"signals" validate:"required,min=1"`
	Evidence evidence.Data            `json:"evidence"`
	Taxonomy []models.TopicDefinition `json:"taxonomy,omitempty" validate:"omitempty,dive"`
	Personas []models.Persona         `json:"personas,omitempty" validate:"omitempty,dive"`
	// Served maps persona id to recommendations already served this week.
	// When nil, counts are read from the store.
	Served map[string]int `json:"served,omitempty"`
	// Now fixes the run's reference time. Defaults to the wall clock.
	Now *time.Time `json:"now,omitempty"`
}

// ScoredSignal is the full per-signal outcome of a run.
type ScoredSignal struct {
	Signal    models.Signal         `json:"signal"`
	Topic     topic.Match           `json:"topic"`
	Evidence  models.EvidenceBundle `json:"evidence"`
	Result    scoring.Result        `json:"result"`
	ClusterID string                `json:"cluster_id"`
}

// Skipped is a signal left out of the run.
type Skipped struct {
	SignalID string `json:"signal_id"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// Report summarizes a run's partial successes.
type Report struct {
	Received         int            `json:"received"`
	Scored           int            `json:"scored"`
	Skipped          []Skipped      `json:"skipped,omitempty"`
	ProviderFailures int            `json:"provider_failures"`
	Demoted          int            `json:"demoted"`
	Clusters         int            `json:"clusters"`
	Tiers            map[string]int `json:"tiers"`
	// QuotaSkipped are representatives left out because every persona
	// they matched was full.
	QuotaSkipped []string `json:"quota_skipped,omitempty"`
}

// SkipCounts groups skipped signals by reason.
func (r *Report) SkipCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Summary renders the report as one line, for example
// "scored 7 of 10 signals, 3 skipped (missing_title: 3), 4 clusters".
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scored %d of %d signals", r.Scored, r.Received)
	if len(r.Skipped) > 0 {
		counts := r.SkipCounts()
		reasons := make([]string, 0, len(counts))
		for reason := range counts {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		parts := make([]string, len(reasons))
		for i, reason := range reasons {
			parts[i] = fmt.Sprintf("%s: %d", reason, counts[reason])
		}
		fmt.Fprintf(&sb, ", %d skipped (%s)", len(r.Skipped), strings.Join(parts, ", "))
	}
	fmt.Fprintf(&sb, ", %d clusters", r.Clusters)
	if r.ProviderFailures > 0 {
		fmt.Fprintf(&sb, ", %d provider failures", r.ProviderFailures)
	}
	if r.Demoted > 0 {
		fmt.Fprintf(&sb, ", %d demoted", r.Demoted)
	}
	return sb.String()
}

// RunResult is the output of Engine.Run.
type RunResult struct {
	RunID           string                      `json:"run_id"`
	StartedAt       time.Time                   `json:"started_at"`
	CompletedAt     time.Time                   `json:"completed_at"`
	WeightsVersion  string                      `json:"weights_version,omitempty"`
	Recommendations []models.Recommendation     `json:"recommendations"`
	Underserved     []models.UnderservedPersona `json:"underserved_personas"`
	Clusters        []cluster.Cluster           `json:"clusters"`
	Signals         []ScoredSignal              `json:"signals"`
	Report          Report                      `json:"report"`

	// Clustering allows membership edits after the run.
	Clustering *cluster.Clustering `json:"-"`
}
