// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

/*
Package supervisor runs the engine's long-lived services under suture v4.

The tree has three layers so that a failing background job never takes the
HTTP surface down with it:

	RootSupervisor ("trendscout")
	├── DataSupervisor ("data-layer")
	│   └── StoreGCService (if store.gc_interval > 0 and the store is on disk)
	├── LearningSupervisor ("learning-layer")
	│   └── LearningService (if learning.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Add places a service
under a Layer; the AddXService helpers are shorthands for the three layers. Supervisor events
are logged through sutureslog on top of the zerolog slog adapter.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval, logger))
	tree.AddLearningService(services.NewLearningService(learner, services.LearningServiceConfig{...}, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
	return tree.Serve(ctx)
*/
package supervisor
