// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package store persists engine state in BadgerDB: the append-only
// feedback log, the current pattern weights, the embedding cache and the
// per-week persona served counts.
//
// Key layout:
//
//	feedback:<utc timestamp>:<event id>  -> FeedbackEvent (JSON)
//	feedback_id:<event id>               -> feedback key of that event
//	weight:<topic id>                    -> PatternWeight (JSON)
//	weights_meta                         -> snapshot version (JSON)
//	embedding:<model>:<text hash>        -> []float32 (little endian)
//	served:<iso week>:<persona id>       -> uint64 (big endian)
//
// Scoring runs only read from the store. The learning loop is the only
// writer of weights, one transaction per topic.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")

	// ErrDuplicateEvent is returned when a feedback id is already logged.
	ErrDuplicateEvent = errors.New("feedback event already recorded")
)

const (
	prefixFeedback  = "feedback:"
	prefixEventID   = "feedback_id:"
	prefixWeight    = "weight:"
	keyWeightsMeta  = "weights_meta"
	prefixEmbedding = "embedding:"
	prefixServed    = "served:"

	// timestampLayout sorts lexically in time order.
	timestampLayout = "20060102T150405.000000000Z"
)

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool
	// GCRatio is the value log discard ratio for GC.
	GCRatio float64
}

// Store is a BadgerDB-backed store. It is safe for concurrent use.
type Store struct {
	db      *badger.DB
	gcRatio float64
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, fmt.Errorf("store path is required unless in_memory is set")
	}
	if opts.GCRatio <= 0 || opts.GCRatio >= 1 {
		opts.GCRatio = 0.5
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:      db,
		gcRatio: opts.GCRatio,
		logger:  logger.With().Str("component", "store").Logger(),
	}
	s.logger.Info().Str("path", opts.Path).Bool("in_memory", opts.InMemory).Msg("Store opened")
	return s, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// RunGC reclaims value log space until nothing more can be rewritten.
func (s *Store) RunGC(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if s.db.Opts().InMemory {
		return nil
	}

	start := time.Now()
	rewrites := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(s.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
		rewrites++
	}
	s.logger.Debug().Int("rewrites", rewrites).Dur("elapsed", time.Since(start)).Msg("Store GC complete")
	return nil
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}
