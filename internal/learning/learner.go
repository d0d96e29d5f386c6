// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package learning turns stored feedback into pattern weights.
//
// Each run is a batch recomputation over a rolling window: for every topic
// with enough feedback, weight = liked / rejected (2.0 when nothing was
// rejected, 1.0 when nothing was liked or rejected), clamped to
// [0.5, 2.0]. Rerunning over the same window yields the same weights.
// A run produces a new immutable snapshot; scoring runs read whichever
// snapshot was current when they started.
package learning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/logging"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
)

// Snapshot is a versioned set of pattern weights.
type Snapshot = models.WeightSnapshot

// ErrRunInProgress is returned when a run is started while another is active.
var ErrRunInProgress = errors.New("learning run already in progress")

// Store is the persistence the learner reads feedback from and writes
// weights to.
type Store interface {
	ListFeedback(ctx context.Context, since time.Time) ([]models.FeedbackEvent, error)
	LoadWeights(ctx context.Context) (*models.WeightSnapshot, error)
	SaveWeights(ctx context.Context, snap *models.WeightSnapshot) error
}

// ComputeWeight returns the pattern weight for a topic's feedback counts.
func ComputeWeight(liked, rejected int) float64 {
	if rejected > 0 {
		return models.ClampPatternWeight(float64(liked) / float64(rejected))
	}
	if liked > 0 {
		return models.MaxPatternWeight
	}
	return models.DefaultPatternWeight
}

// Status describes the learner's most recent run.
type Status struct {
	Running        bool          `json:"running"`
	LastRunAt      time.Time     `json:"last_run_at,omitempty"`
	LastDuration   time.Duration `json:"last_duration"`
	LastError      string        `json:"last_error,omitempty"`
	Version        string        `json:"version,omitempty"`
	Sequence       int64         `json:"sequence"`
	EventsInWindow int           `json:"events_in_window"`
	TopicsUpdated  int           `json:"topics_updated"`
}

// Learner runs the feedback learning loop. It is safe for concurrent use;
// only one run executes at a time.
type Learner struct {
	store  Store
	cfg    config.LearningConfig
	logger zerolog.Logger
	now    func() time.Time

	current atomic.Pointer[Snapshot]

	runMu    sync.Mutex
	statusMu sync.RWMutex
	status   Status
}

// NewLearner creates a learner. Call Load to pick up persisted weights.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLearner(store Store, cfg config.LearningConfig, logger zerolog.Logger) *Learner {
	l := &Learner{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "learning").Logger(),
		now:    time.Now,
	}
	l.current.Store(&Snapshot{Weights: map[string]models.PatternWeight{}})
	return l
}

// Load reads the persisted weights and makes them current.
func (l *Learner) Load(ctx context.Context) error {
	snap, err := l.store.LoadWeights(ctx)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	l.current.Store(snap)
	for id, w := range snap.Weights {
		metrics.SetPatternWeight(id, w.Weight)
	}
	l.logger.Info().
		Str("version", snap.Version).
		Int64("sequence", snap.Sequence).
		Int("topics", len(snap.Weights)).
		Msg("Loaded pattern weights")
	return nil
}

// Current returns the last known good snapshot. Callers must not modify it.
func (l *Learner) Current() *Snapshot {
	return l.current.Load()
}

// Status returns the state of the most recent run.
func (l *Learner) Status() Status {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.status
}

// Run recomputes weights from the feedback window and persists the result.
// The new snapshot becomes current only after it has been saved.
func (l *Learner) Run(ctx context.Context) (*Snapshot, error) {
	if !l.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer l.runMu.Unlock()

	start := time.Now()
	l.setRunning()

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	snap, events, err := l.run(ctx)
	elapsed := time.Since(start)
	metrics.RecordLearningRun(elapsed, err)
	l.finish(snap, events, elapsed, err)
	if err != nil {
		l.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("Learning run failed")
		return nil, err
	}

	for _, id := range snap.Updated {
		metrics.SetPatternWeight(id, snap.Weights[id].Weight)
	}
	runCtx := logging.ContextWithRunID(ctx, snap.Version)
	logging.NewRunLogger(runCtx, l.logger).Complete(
		fmt.Sprintf("reweighted %d topics from %d feedback events", len(snap.Updated), events),
		elapsed,
	)
	return snap, nil
}

func (l *Learner) run(ctx context.Context) (*Snapshot, int, error) {
	now := l.now().UTC()
	var since time.Time
	if l.cfg.Window > 0 {
		since = now.Add(-l.cfg.Window)
	}

	events, err := l.store.ListFeedback(ctx, since)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	prior := l.Current()
	next := &Snapshot{
		Version:    uuid.NewString(),
		Sequence:   prior.Sequence + 1,
		ComputedAt: now,
		Weights:    make(map[string]models.PatternWeight, len(prior.Weights)),
		Updated:    []string{},
	}
	for id, w := range prior.Weights {
		next.Weights[id] = w
	}

	minFeedback := l.cfg.MinFeedback
	if minFeedback < 1 {
		minFeedback = 1
	}

	counts, inWindow := tally(events, since, now)
	for id, c := range counts {
		if c.liked+c.rejected < minFeedback {
			continue
		}
		next.Weights[id] = models.PatternWeight{
			TopicID:   id,
			Weight:    ComputeWeight(c.liked, c.rejected),
			Liked:     c.liked,
			Rejected:  c.rejected,
			UpdatedAt: now,
			Version:   next.Sequence,
		}
		next.Updated = append(next.Updated, id)
	}
	sort.Strings(next.Updated)

	if err := l.store.SaveWeights(ctx, next); err != nil {
		return nil, inWindow, fmt.Errorf("save weights: %w", err)
	}
	l.current.Store(next)
	return next, inWindow, nil
}

type topicCounts struct {
	liked    int
	rejected int
}

// tally counts positive and negative actions per topic for events inside
// [since, now]. An event naming a topic twice counts once for it.
func tally(events []models.FeedbackEvent, since, now time.Time) (map[string]*topicCounts, int) {
	counts := make(map[string]*topicCounts)
	inWindow := 0
	for i := range events {
		e := &events[i]
		if e.Timestamp.Before(since) || e.Timestamp.After(now) {
			continue
		}
		if !e.Action.Valid() {
			continue
		}
		inWindow++

		seen := make(map[string]bool, len(e.TopicIDs))
		for _, id := range e.TopicIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			c, ok := counts[id]
			if !ok {
				c = &topicCounts{}
				counts[id] = c
			}
			if e.Action.IsPositive() {
				c.liked++
			} else {
				c.rejected++
			}
		}
	}
	return counts, inWindow
}

func (l *Learner) setRunning() {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.Running = true
	l.status.LastError = ""
}

func (l *Learner) finish(snap *Snapshot, events int, elapsed time.Duration, err error) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.Running = false
	l.status.LastRunAt = l.now().UTC()
	l.status.LastDuration = elapsed
	l.status.EventsInWindow = events
	if err != nil {
		l.status.LastError = err.Error()
		return
	}
	l.status.Version = snap.Version
	l.status.Sequence = snap.Sequence
	l.status.TopicsUpdated = len(snap.Updated)
}
