// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trendscout/internal/cluster"
)

const (
	recentRuns   = 64
	runRetention = 24 * time.Hour
)

// clustering resolves the {runID} path parameter. It writes a 404 and
// returns false when the run is unknown or has expired.
func (h *Handler) clustering(w http.ResponseWriter, r *http.Request) (*cluster.Clustering, bool) {
	c, ok := h.runs.Get(chi.URLParam(r, "runID"))
	if !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "Run not found or no longer editable", nil)
		return nil, false
	}
	return c, true
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// ListClusters returns the current clusters of a recent run.
//
// @Summary List a run's clusters
// @Tags Runs
// @Produce json
// @Param runID path string true "Run ID"
// @Success 200 {object} models.APIResponse{data=[]cluster.Cluster}
// @Failure 404 {object} models.APIResponse
// @Router /runs/{runID}/clusters [get]
func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, ok := h.clustering(w, r)
	if !ok {
		return
	}
	respondSuccess(w, http.StatusOK, c.Clusters(), start)
}

// AddClusterMember moves a signal into a cluster and returns the updated
// clusters. The signal's previous cluster is dissolved if it empties.
//
// @Summary Move a signal into a cluster
// @Tags Runs
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]cluster.Cluster}
// @Failure 404 {object} models.APIResponse
// @Router /runs/{runID}/clusters/{clusterID}/members/{signalID} [put]
func (h *Handler) AddClusterMember(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, ok := h.clustering(w, r)
	if !ok {
		return
	}

	if err := c.AddMember(pathParam(r, "clusterID"), pathParam(r, "signalID")); err != nil {
		respondMembershipError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, c.Clusters(), start)
}

// RemoveClusterMember splits a signal out of a cluster into a new
// singleton cluster and returns the updated clusters.
//
// @Summary Split a signal out of a cluster
// @Tags Runs
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]cluster.Cluster}
// @Failure 404 {object} models.APIResponse
// @Router /runs/{runID}/clusters/{clusterID}/members/{signalID} [delete]
func (h *Handler) RemoveClusterMember(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, ok := h.clustering(w, r)
	if !ok {
		return
	}

	signalID := pathParam(r, "signalID")
	current, ok := c.ClusterOf(signalID)
	if !ok || current.ID != pathParam(r, "clusterID") {
		respondError(w, http.StatusNotFound, codeNotFound, "Signal is not a member of this cluster", nil)
		return
	}
	if _, err := c.RemoveMember(signalID); err != nil {
		respondMembershipError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, c.Clusters(), start)
}

func respondMembershipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cluster.ErrUnknownSignal):
		respondError(w, http.StatusNotFound, codeNotFound, "Signal is not part of this run", nil)
	case errors.Is(err, cluster.ErrUnknownCluster):
		respondError(w, http.StatusNotFound, codeNotFound, "Cluster not found", nil)
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, "Cluster edit failed", err)
	}
}
