// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/learning"
)

// Learner is the part of the learning loop the service drives.
type Learner interface {
	Run(ctx context.Context) (*learning.Snapshot, error)
}

// LearningServiceConfig holds the learning schedule.
type LearningServiceConfig struct {
	// RunOnStartup runs the loop once when the service starts.
	RunOnStartup bool

	// Interval between scheduled runs.
	// Default: 6h
	Interval time.Duration
}

// LearningService runs the feedback learning loop on a schedule. A failed
// run is logged and retried at the next tick; it never stops the service.
type LearningService struct {
	learner Learner
	config  LearningServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewLearningService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLearningService(learner Learner, cfg LearningServiceConfig, logger zerolog.Logger) *LearningService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	return &LearningService{
		learner: learner,
		config:  cfg,
		logger:  logger.With().Str("service", "learning").Logger(),
		name:    "learning-service",
	}
}

// Serve implements suture.Service.
func (s *LearningService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Learning service starting")

	if s.config.RunOnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Learning service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *LearningService) run(ctx context.Context) {
	snap, err := s.learner.Run(ctx)
	switch {
	case errors.Is(err, learning.ErrRunInProgress):
		s.logger.Debug().Msg("Learning run already in progress, skipping tick")
	case err != nil:
		s.logger.Warn().Err(err).Msg("Scheduled learning run failed")
	default:
		s.logger.Debug().
			Str("version", snap.Version).
			Int("topics_updated", len(snap.Updated)).
			Msg("Scheduled learning run complete")
	}
}

// String returns the service name for logging.
func (s *LearningService) String() string {
	return s.name
}
