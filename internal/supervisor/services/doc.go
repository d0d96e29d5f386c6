// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

/*
Package services adapts engine components to suture's Serve pattern.

	type Service interface {
	    Serve(ctx context.Context) error
	}

Each wrapper returns ctx.Err() on shutdown and a wrapped error on failure,
which suture answers with a restart. Every wrapper implements fmt.Stringer
so that supervisor events name the service.

  - HTTPServerService: ListenAndServe with graceful Shutdown.
  - LearningService: the feedback learning loop on a ticker, optionally
    once at startup. A failed run waits for the next tick.
  - StoreGCService: periodic badger value log GC.
*/
package services
