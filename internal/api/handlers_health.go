// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trendscout/internal/learning"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status         string           `json:"status"`
	Version        string           `json:"version"`
	StoreConnected bool             `json:"store_connected"`
	Learning       *learning.Status `json:"learning,omitempty"`
	WeightsVersion string           `json:"weights_version,omitempty"`
	Uptime         float64          `json:"uptime_seconds"`
}

// Health reports store connectivity and the learner's last run. The
// status is "degraded" when the store is unreachable or the last learning
// run failed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := HealthStatus{
		Status:         "healthy",
		Version:        h.version,
		StoreConnected: h.store != nil && h.store.Ping(r.Context()) == nil,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if !health.StoreConnected {
		health.Status = "degraded"
	}
	if h.learner != nil {
		st := h.learner.Status()
		health.Learning = &st
		if st.LastError != "" {
			health.Status = "degraded"
		}
		if snap := h.learner.Current(); snap != nil {
			health.WeightsVersion = snap.Version
		}
	}

	respondSuccess(w, http.StatusOK, health, start)
}

// HealthLive always answers 200 while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady answers 503 until the store is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "Store is not reachable", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, time.Now())
}
