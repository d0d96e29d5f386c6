// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package topic assigns signals to taxonomy topics and provides the
// embedding similarity layer shared by competitor matching and
// clustering.
//
// Matching is keyword based: every keyword of every topic is compiled
// into one word-boundary automaton. A keyword scores min(len, 10) points
// and five more when it appears in the title. The topic with the highest
// total wins; ties go to the topic declared first.
package topic

import (
	"unicode/utf8"

	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

const (
	// MinKeywordLength is the shortest keyword considered.
	MinKeywordLength = 2
	// MaxKeywordPoints caps the points a single keyword contributes.
	MaxKeywordPoints = 10
	// TitleBonus is added when a keyword occurs in the title.
	TitleBonus = 5
	// ConfidencePerPoint converts match points to confidence.
	ConfidencePerPoint = 10
	// MaxConfidence is the confidence ceiling.
	MaxConfidence = 100
)

// Match is the result of matching one signal.
type Match struct {
	TopicID    string  `json:"topic_id"`
	TopicName  string  `json:"topic_name"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
	// Keywords are the matched keywords in declaration order.
	Keywords []string `json:"keywords,omitempty"`
}

// Uncategorized reports whether no topic matched.
func (m Match) Uncategorized() bool {
	return m.TopicID == models.UncategorizedTopicID
}

func uncategorized() Match {
	return Match{TopicID: models.UncategorizedTopicID, TopicName: models.UncategorizedTopicID}
}

type keywordRef struct {
	topic   int
	keyword string
	points  int
}

// Matcher matches text against an ordered taxonomy. It is immutable
// after construction and safe for concurrent use.
type Matcher struct {
	topics    []models.TopicDefinition
	byID      map[string]int
	refs      []keywordRef
	automaton *textmatch.Automaton
}

// NewMatcher compiles taxonomy. Keywords shorter than MinKeywordLength
// and duplicates within a topic are dropped.
func NewMatcher(taxonomy []models.TopicDefinition) *Matcher {
	m := &Matcher{
		topics:    append([]models.TopicDefinition(nil), taxonomy...),
		byID:      make(map[string]int, len(taxonomy)),
		automaton: textmatch.New(),
	}

	for ti, def := range m.topics {
		if _, dup := m.byID[def.ID]; !dup {
			m.byID[def.ID] = ti
		}
		seen := make(map[string]bool, len(def.Keywords))
		for _, kw := range def.Keywords {
			norm := textmatch.Normalize(kw)
			n := utf8.RuneCountInString(norm)
			if n < MinKeywordLength || seen[norm] {
				continue
			}
			seen[norm] = true
			m.refs = append(m.refs, keywordRef{topic: ti, keyword: kw, points: min(n, MaxKeywordPoints)})
			m.automaton.Add(norm, len(m.refs)-1)
		}
	}
	m.automaton.Build()
	return m
}

// Topics returns the taxonomy in declaration order.
func (m *Matcher) Topics() []models.TopicDefinition {
	return m.topics
}

// Topic looks up a topic by id.
func (m *Matcher) Topic(id string) (models.TopicDefinition, bool) {
	i, ok := m.byID[id]
	if !ok {
		return models.TopicDefinition{}, false
	}
	return m.topics[i], true
}

// Match returns the best topic for a signal. It never fails: an empty
// taxonomy or no keyword hit yields the uncategorized topic with zero
// confidence.
func (m *Matcher) Match(title, description string) Match {
	if len(m.refs) == 0 {
		return uncategorized()
	}

	inTitle := indexSet(m.automaton.Matched(title))
	inDesc := indexSet(m.automaton.Matched(description))
	if len(inTitle) == 0 && len(inDesc) == 0 {
		return uncategorized()
	}

	scores := make([]int, len(m.topics))
	hits := make([][]string, len(m.topics))
	for i, ref := range m.refs {
		switch {
		case inTitle[i]:
			scores[ref.topic] += ref.points + TitleBonus
		case inDesc[i]:
			scores[ref.topic] += ref.points
		default:
			continue
		}
		hits[ref.topic] = append(hits[ref.topic], ref.keyword)
	}

	best := -1
	for ti := range m.topics {
		if len(hits[ti]) == 0 {
			continue
		}
		if best < 0 || scores[ti] > scores[best] {
			best = ti
		}
	}
	if best < 0 {
		return uncategorized()
	}

	def := m.topics[best]
	return Match{
		TopicID:    def.ID,
		TopicName:  def.DisplayName(),
		Score:      scores[best],
		Confidence: float64(min(ConfidencePerPoint*scores[best], MaxConfidence)),
		Keywords:   hits[best],
	}
}

func indexSet(idx []int) map[int]bool {
	if len(idx) == 0 {
		return nil
	}
	set := make(map[int]bool, len(idx))
	for _, i := range idx {
		set[i] = true
	}
	return set
}
