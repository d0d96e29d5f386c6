// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package main is the entry point for the Trendscout server.
//
// Trendscout scores incoming trend signals for a content channel, clusters
// overlapping stories, balances recommendations across audience personas
// and learns per-topic weights from editor feedback.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml and environment (Koanf v2)
//  2. Logging: zerolog, also bridged to slog for the supervisor
//  3. Store: BadgerDB for feedback, weights, embeddings and served counts
//  4. Providers: optional embedding and AI endpoints, both fail open
//  5. Learner: loads the last persisted weight snapshot
//  6. Engine and HTTP router
//  7. Supervisor tree: store GC, scheduled learning, HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the
// HTTP server gracefully, then the store is closed.
//
// # Example Usage
//
//	export STORE_PATH=/var/lib/trendscout
//	export EMBEDDING_ENABLED=true
//	export EMBEDDING_URL=http://localhost:8080/v1/embeddings
//	./trendscout
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/api"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/learning"
	"github.com/tomtom215/trendscout/internal/logging"
	"github.com/tomtom215/trendscout/internal/pipeline"
	"github.com/tomtom215/trendscout/internal/store"
	"github.com/tomtom215/trendscout/internal/supervisor"
	"github.com/tomtom215/trendscout/internal/supervisor/services"
	"github.com/tomtom215/trendscout/internal/topic"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Trendscout exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Version:   version,
		Output:    os.Stderr,
	})
	logger := logging.Logger()

	logger.Info().
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Int("topics", len(cfg.Taxonomy)).
		Int("personas", len(cfg.Personas)).
		Bool("embedding_enabled", cfg.Embedding.Enabled).
		Bool("ai_enabled", cfg.AI.Enabled).
		Msg("Configuration loaded")

	st, err := store.Open(store.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	learner := learning.NewLearner(st, cfg.Learning, logger)
	if err := learner.Load(ctx); err != nil {
		return err
	}

	embedder := newEmbedder(cfg.Embedding, st, logger)
	engine := pipeline.NewEngine(cfg, pipeline.Dependencies{
		Similarity: topic.NewSimilarity(embedder, logger),
		Judge:      newJudge(cfg.AI, logger),
		Weights:    learner,
		Served:     st,
	}, logger)

	handler := api.NewHandler(engine, st, learner, version)
	router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfigFromServer(cfg.Server)))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLoggerFor(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return err
	}
	addServices(tree, cfg, st, learner, server, logger)

	logger.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logger.Info().Msg("Trendscout stopped")
	return nil
}

// addServices registers the long-running services for cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func addServices(
	tree *supervisor.SupervisorTree,
	cfg *config.Config,
	st *store.Store,
	learner *learning.Learner,
	server *http.Server,
	logger zerolog.Logger,
) {
	if !cfg.Store.InMemory && cfg.Store.GCInterval > 0 {
		tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval, logger))
	}

	if cfg.Learning.Enabled {
		tree.AddLearningService(services.NewLearningService(learner, services.LearningServiceConfig{
			RunOnStartup: cfg.Learning.RunOnStartup,
			Interval:     cfg.Learning.Interval,
		}, logger))
	} else {
		logger.Info().Msg("Scheduled learning disabled; use POST /api/v1/learning/run")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
}
