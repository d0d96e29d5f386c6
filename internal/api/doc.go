// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

/*
Package api exposes the scoring engine and the learning loop over HTTP.

Routes are served by a chi router with the go-chi middleware ecosystem:

	GET  /api/v1/health          store and learner status
	GET  /api/v1/health/live     liveness probe
	GET  /api/v1/health/ready    readiness probe (store reachable)
	POST /api/v1/runs            score, cluster and balance one batch
	GET  /api/v1/runs/{runID}/clusters
	                             clusters of a recent run
	PUT  /api/v1/runs/{runID}/clusters/{clusterID}/members/{signalID}
	                             move a signal into a cluster
	DELETE /api/v1/runs/{runID}/clusters/{clusterID}/members/{signalID}
	                             split a signal out into its own cluster
	POST /api/v1/feedback        append one feedback event
	GET  /api/v1/weights         current pattern weight snapshot
	POST /api/v1/learning/run    trigger a learning run now
	GET  /metrics                Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Validation
failures answer 400 with code VALIDATION_ERROR; a learning run requested
while another is executing answers 409.

The clusterings of the last 64 runs stay editable for 24 hours. Edits
change the run's story grouping only; recommendations already returned
are not recomputed.

Global middleware, in order: request id with logging context, real IP,
panic recovery, CORS, Prometheus request metrics and security headers.
The /api/v1 routes are rate limited per client IP with httprate.
*/
package api
