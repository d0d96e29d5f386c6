// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

// UncategorizedTopicID is the sentinel topic returned when no taxonomy
// keyword matches a signal.
const UncategorizedTopicID = "uncategorized"

// TopicDefinition is one entry of a channel's ordered taxonomy.
// Declaration order matters: it breaks ties in topic matching.
//
// Keywords are weighted by their own length (capped at 10) during
// matching, so longer and more specific phrases count for more.
type TopicDefinition struct {
	ID          string   `json:"topic_id" koanf:"id" yaml:"id" validate:"required,slug"`
	Names       []string `json:"names,omitempty" koanf:"names" yaml:"names"`
	Keywords    []string `json:"keywords" koanf:"keywords" yaml:"keywords" validate:"dive,required"`
	Description string   `json:"description,omitempty" koanf:"description" yaml:"description"`
}

// DisplayName returns the first display name, falling back to the id.
func (t *TopicDefinition) DisplayName() string {
	if len(t.Names) > 0 && t.Names[0] != "" {
		return t.Names[0]
	}
	return t.ID
}

// Persona is a target-audience definition with a weekly serving quota.
// A persona whose WeeklyQuota is zero or negative has no quota configured
// and is left out of balancing.
type Persona struct {
	ID          string       `json:"persona_id" koanf:"id" yaml:"id" validate:"required,slug"`
	Name        string       `json:"name,omitempty" koanf:"name" yaml:"name"`
	MatchRules  PersonaRules `json:"match_rules" koanf:"match_rules" yaml:"match_rules"`
	WeeklyQuota int          `json:"weekly_quota" koanf:"weekly_quota" yaml:"weekly_quota"`
}

// PersonaRules describes which signals a persona is interested in.
type PersonaRules struct {
	// TopicIDs match against the signal's matched taxonomy topic.
	TopicIDs []string `json:"topic_ids,omitempty" koanf:"topic_ids" yaml:"topic_ids"`
	// Keywords match against the signal text with word boundaries.
	Keywords []string `json:"keywords,omitempty" koanf:"keywords" yaml:"keywords"`
}

// HasQuota reports whether the persona takes part in balancing.
func (p *Persona) HasQuota() bool {
	return p.WeeklyQuota > 0
}
