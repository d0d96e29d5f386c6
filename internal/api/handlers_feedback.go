// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/store"
)

// RecordFeedback appends one feedback event. The id and timestamp are
// assigned by the store when omitted. Replaying an id that is already
// logged gets 409 and leaves the log untouched.
//
// @Summary Record feedback on a recommendation
// @Tags Feedback
// @Accept json
// @Produce json
// @Success 201 {object} models.APIResponse{data=models.FeedbackEvent}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /feedback [post]
func (h *Handler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var event models.FeedbackEvent
	if !decodeJSON(w, r, &event) {
		return
	}
	if !validateRequest(w, &event) {
		return
	}

	if err := h.store.AppendFeedback(r.Context(), &event); err != nil {
		if errors.Is(err, store.ErrDuplicateEvent) {
			respondError(w, http.StatusConflict, codeConflict, "Feedback event already recorded", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to store feedback", err)
		return
	}
	metrics.RecordFeedback(string(event.Action))

	respondSuccess(w, http.StatusCreated, event, start)
}
