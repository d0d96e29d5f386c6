// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

// Tier is the urgency classification of a scored signal.
type Tier string

// Urgency tiers.
const (
	TierPostToday Tier = "post_today"
	TierThisWeek  Tier = "this_week"
	TierBacklog   Tier = "backlog"
)

// Recommendation is one entry of the ranked output list.
type Recommendation struct {
	Rank            int      `json:"rank"`
	SignalID        string   `json:"signal_id"`
	Title           string   `json:"title"`
	Score           float64  `json:"score"`
	Tier            Tier     `json:"tier"`
	MatchedTopic    string   `json:"matched_topic"`
	TopicConfidence float64  `json:"topic_confidence"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	EvidenceSummary []string `json:"evidence_summary"`
	ClusterID       string   `json:"cluster_id"`
	ClusterSize     int      `json:"cluster_size"`
	PersonaID       string   `json:"persona_id,omitempty"`
	// TierReason explains a post_today confirmation or demotion.
	TierReason string `json:"tier_reason,omitempty"`
}

// UnderservedPersona reports a persona that could not reach its quota
// from the eligible candidates of a run.
type UnderservedPersona struct {
	PersonaID      string `json:"persona_id"`
	WeeklyQuota    int    `json:"weekly_quota"`
	AlreadyServed  int    `json:"already_served"`
	Assigned       int    `json:"assigned"`
	ShortfallCount int    `json:"shortfall_count"`
}
