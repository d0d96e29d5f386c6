// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package scoring turns a signal and its evidence into a score in
// [0, 100] and an urgency tier.
//
// The base score is the sum of capped contributions (search interest,
// competitor coverage, audience comments, current events, topic fit).
// It is multiplied by the topic's learned pattern weight and by a
// freshness factor, then clamped. Scores at the post_today threshold must
// additionally pass an urgency confirmation or are demoted to this_week.
package scoring

import (
	"github.com/tomtom215/trendscout/internal/models"
)

// Default tier thresholds.
const (
	PostTodayThreshold = 85.0
	ThisWeekThreshold  = 50.0
)

// TierForScore maps a score to a tier with the default thresholds. A
// post_today score that was not confirmed lands in this_week.
func TierForScore(score float64, confirmed bool) models.Tier {
	return tierFor(score, confirmed, PostTodayThreshold, ThisWeekThreshold)
}

func tierFor(score float64, confirmed bool, postToday, thisWeek float64) models.Tier {
	switch {
	case score >= postToday && confirmed:
		return models.TierPostToday
	case score >= thisWeek:
		return models.TierThisWeek
	default:
		return models.TierBacklog
	}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
