// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package scoring

import "github.com/tomtom215/trendscout/internal/textmatch"

var (
	evergreenPhrases = []string{
		"explained", "explainer", "history of", "the story of", "what is", "what are",
		"how does", "how do", "why do", "why does", "guide to", "everything you need to know",
		"timeline of", "origins of",
	}
	datedPhrases = []string{
		"breaking", "today", "tonight", "yesterday", "this week", "just", "live",
		"announces", "announced", "update", "latest", "now",
	}
)

// DetectEvergreen reports whether text reads like timeless content: it
// uses explainer or history phrasing and none of the phrasing of a dated
// news event.
func DetectEvergreen(title, description string) bool {
	text := title + " " + description
	return textmatch.ContainsAny(text, evergreenPhrases) && !textmatch.ContainsAny(text, datedPhrases)
}
