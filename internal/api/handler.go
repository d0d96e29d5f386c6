// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"context"
	"time"

	"github.com/tomtom215/trendscout/internal/cache"
	"github.com/tomtom215/trendscout/internal/cluster"
	"github.com/tomtom215/trendscout/internal/learning"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/pipeline"
)

// Runner executes scoring runs.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error)
}

// FeedbackStore appends feedback events and reports store health.
type FeedbackStore interface {
	AppendFeedback(ctx context.Context, event *models.FeedbackEvent) error
	Ping(ctx context.Context) error
}

// Learner exposes the learning loop.
type Learner interface {
	Current() *learning.Snapshot
	Status() learning.Status
	Run(ctx context.Context) (*learning.Snapshot, error)
}

// Handler holds the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_runs.go: scoring runs
//   - handlers_feedback.go: feedback intake
//   - handlers_learning.go: weights and learning trigger
//   - handlers_clusters.go: cluster membership edits on recent runs
//   - handlers_health.go: health probes
type Handler struct {
	runner    Runner
	store     FeedbackStore
	learner   Learner
	version   string
	startTime time.Time

	// runs keeps recent clusterings editable by run id.
	runs *cache.LRU[string, *cluster.Clustering]
}

// NewHandler creates a handler. learner may be nil when learning is
// disabled; the learning routes then answer 503.
func NewHandler(runner Runner, store FeedbackStore, learner Learner, version string) *Handler {
	return &Handler{
		runner:    runner,
		store:     store,
		learner:   learner,
		version:   version,
		startTime: time.Now(),
		runs:      cache.NewLRU[string, *cluster.Clustering](recentRuns, runRetention),
	}
}
