// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/trendscout/internal/learning"
)

// Weights returns the current pattern weight snapshot.
func (h *Handler) Weights(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	if h.learner == nil {
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "Learning is disabled", nil)
		return
	}
	respondSuccess(w, http.StatusOK, h.learner.Current(), start)
}

// learningRunResponse is the body of a completed learning trigger.
type learningRunResponse struct {
	Snapshot *learning.Snapshot `json:"snapshot"`
	Status   learning.Status    `json:"status"`
}

// TriggerLearning runs the learning loop now and waits for it. The run
// outlives a disconnected client; the learner applies its own timeout.
//
// @Summary Trigger a learning run
// @Tags Learning
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "A run is already in progress"
// @Router /learning/run [post]
func (h *Handler) TriggerLearning(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.learner == nil {
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "Learning is disabled", nil)
		return
	}

	snap, err := h.learner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, learning.ErrRunInProgress) {
			respondError(w, http.StatusConflict, codeConflict, "A learning run is already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "Learning run failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, learningRunResponse{Snapshot: snap, Status: h.learner.Status()}, start)
}
