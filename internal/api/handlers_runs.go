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

	"github.com/tomtom215/trendscout/internal/pipeline"
	"github.com/tomtom215/trendscout/internal/validation"
)

// CreateRun scores one batch of signals and returns recommendations,
// clusters, per-signal results and the run report.
//
// @Summary Run the scoring pipeline
// @Tags Runs
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=pipeline.RunResult}
// @Failure 400 {object} models.APIResponse
// @Router /runs [post]
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req pipeline.RunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		var verr *validation.RequestValidationError
		switch {
		case errors.As(err, &verr):
			respondValidationError(w, verr)
		case errors.Is(err, pipeline.ErrNoSignals), errors.Is(err, pipeline.ErrTooManySignals):
			respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusServiceUnavailable, codeRequestTimeout, "Run timed out", err)
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
			return
		default:
			respondError(w, http.StatusInternalServerError, codeInternal, "Run failed", err)
		}
		return
	}

	if result.Clustering != nil {
		h.runs.Add(result.RunID, result.Clustering)
	}
	respondSuccess(w, http.StatusOK, result, start)
}
