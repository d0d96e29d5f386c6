// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

import "time"

// SourceType identifies where a signal was ingested from.
type SourceType string

// Signal source types.
const (
	SourceNews         SourceType = "news"
	SourceForum        SourceType = "forum"
	SourceEncyclopedia SourceType = "encyclopedia"
	SourceCompetitor   SourceType = "competitor"
	SourceManual       SourceType = "manual"
)

// SignalStatus is the lifecycle state of a signal.
//
// new -> scored -> clustered -> recommended -> {liked|rejected|saved|produced}
type SignalStatus string

// Signal lifecycle states.
const (
	StatusNew         SignalStatus = "new"
	StatusScored      SignalStatus = "scored"
	StatusClustered   SignalStatus = "clustered"
	StatusRecommended SignalStatus = "recommended"
	StatusLiked       SignalStatus = "liked"
	StatusRejected    SignalStatus = "rejected"
	StatusSaved       SignalStatus = "saved"
	StatusProduced    SignalStatus = "produced"
)

// IsTerminal reports whether the status was set by user feedback.
func (s SignalStatus) IsTerminal() bool {
	switch s {
	case StatusLiked, StatusRejected, StatusSaved, StatusProduced:
		return true
	default:
		return false
	}
}

// Signal is a candidate content idea produced by an ingestion connector.
//
// Ingestion creates it with StatusNew. The scoring run advances the status
// and never touches terminal states, which belong to user feedback.
// Title is required for scoring but not for decoding: a signal without a
// title is excluded from the run with a logged reason rather than rejected
// at the door.
type Signal struct {
	ID          string           `json:"id" validate:"required,max=256"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	SourceType  SourceType       `json:"source_type" validate:"omitempty,oneof=news forum encyclopedia competitor manual"`
	URL         string           `json:"url,omitempty" validate:"omitempty,url"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	IsEvergreen bool             `json:"is_evergreen"`
	Engagement  *EngagementStats `json:"engagement,omitempty"`
	Status      SignalStatus     `json:"status,omitempty"`
}

// Text returns the title and description joined for matching.
func (s *Signal) Text() string {
	if s.Description == "" {
		return s.Title
	}
	return s.Title + " " + s.Description
}

// Age returns how long ago the signal was published, or zero when the
// publication time is unknown or in the future.
func (s *Signal) Age(now time.Time) time.Duration {
	if s.PublishedAt == nil || s.PublishedAt.IsZero() {
		return 0
	}
	age := now.Sub(*s.PublishedAt)
	if age < 0 {
		return 0
	}
	return age
}

// EngagementStats holds raw, source-specific engagement counters.
// All fields are optional; zero means unknown.
type EngagementStats struct {
	Upvotes  int64 `json:"upvotes,omitempty" validate:"gte=0"`
	Comments int64 `json:"comments,omitempty" validate:"gte=0"`
	Views    int64 `json:"views,omitempty" validate:"gte=0"`
}
