// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package cluster

import (
	"sort"

	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

// Kind is an entity category.
type Kind string

// Entity kinds. Person is the only non-contextual kind.
const (
	KindPerson       Kind = "person"
	KindPlace        Kind = "place"
	KindOrganization Kind = "org"
	KindConcept      Kind = "concept"
	KindTopic        Kind = "topic"
)

// Contextual reports whether the kind anchors a story in place or
// subject, as opposed to naming who is involved.
func (k Kind) Contextual() bool {
	return k != KindPerson
}

// Entity is a canonical entity found in a title.
type Entity struct {
	Kind Kind
	Name string
}

func (e Entity) key() string { return string(e.Kind) + ":" + e.Name }

// Lexicon maps canonical entity names to the phrases that mention them.
type Lexicon map[Kind]map[string][]string

// DefaultLexicon is the built-in entity list.
func DefaultLexicon() Lexicon {
	return Lexicon{
		KindPerson: {
			"trump":     {"trump", "donald trump"},
			"biden":     {"biden", "joe biden"},
			"putin":     {"putin", "vladimir putin"},
			"xi":        {"xi", "xi jinping"},
			"musk":      {"musk", "elon musk"},
			"maduro":    {"maduro", "nicolas maduro"},
			"netanyahu": {"netanyahu"},
			"zelensky":  {"zelensky", "zelenskyy"},
			"modi":      {"modi"},
			"powell":    {"powell", "jerome powell"},
		},
		KindPlace: {
			"china":       {"china", "chinese", "beijing"},
			"russia":      {"russia", "russian", "moscow", "kremlin"},
			"iran":        {"iran", "iranian", "tehran"},
			"venezuela":   {"venezuela", "venezuelan", "caracas"},
			"ukraine":     {"ukraine", "ukrainian", "kyiv"},
			"saudi":       {"saudi", "saudi arabia", "riyadh"},
			"uae":         {"uae", "emirates", "dubai", "abu dhabi"},
			"egypt":       {"egypt", "egyptian", "cairo"},
			"israel":      {"israel", "israeli"},
			"gaza":        {"gaza"},
			"taiwan":      {"taiwan", "taiwanese"},
			"india":       {"india", "indian"},
			"japan":       {"japan", "japanese"},
			"north_korea": {"north korea", "pyongyang"},
			"mexico":      {"mexico", "mexican"},
			"canada":      {"canada", "canadian"},
		},
		KindOrganization: {
			"opec":       {"opec", "opec+"},
			"fed":        {"fed", "federal reserve"},
			"imf":        {"imf", "international monetary fund"},
			"nato":       {"nato"},
			"world_bank": {"world bank"},
			"ecb":        {"ecb", "european central bank"},
			"wto":        {"wto"},
			"eu":         {"eu", "european union"},
		},
		KindConcept: {
			"energy":       {"oil", "crude", "gas", "petrol", "gasoline", "petroleum", "lng"},
			"trade":        {"tariff", "tariffs", "trade war", "trade deal"},
			"credit_cards": {"credit card", "credit cards"},
			"crypto":       {"crypto", "bitcoin", "cryptocurrency", "ethereum"},
			"ai":           {"ai", "artificial intelligence", "chatgpt"},
			"inflation":    {"inflation", "cpi", "prices rise"},
			"protest":      {"protest", "protests", "protesters"},
			"sanctions":    {"sanction", "sanctions"},
		},
	}
}

// genericWords never count as entities, even when a taxonomy lists them.
var genericWords = map[string]bool{
	"us": true, "usa": true, "u.s.": true, "u.s": true, "america": true, "american": true,
	"president": true, "government": true, "breaking": true, "news": true, "world": true,
	"report": true, "says": true, "new": true, "update": true, "live": true,
}

// Add merges extra phrases into l under kind, one canonical entity per
// phrase.
func (l Lexicon) Add(kind Kind, phrases ...string) {
	if l[kind] == nil {
		l[kind] = make(map[string][]string)
	}
	for _, p := range phrases {
		name := textmatch.Normalize(p)
		if name == "" {
			continue
		}
		l[kind][name] = append(l[kind][name], p)
	}
}

type entityRef struct {
	entity Entity
	// topicID is set for taxonomy keyword entities, which only count
	// for signals matched to that topic.
	topicID string
}

// Extractor finds entities in titles with the shared word-boundary
// matcher.
type Extractor struct {
	refs      []entityRef
	automaton *textmatch.Automaton
}

// NewExtractor compiles lexicon plus the keywords of taxonomy. A
// taxonomy keyword already covered by the lexicon keeps its lexicon
// entity.
func NewExtractor(lexicon Lexicon, taxonomy []models.TopicDefinition) *Extractor {
	x := &Extractor{automaton: textmatch.New()}
	seen := make(map[string]bool)

	add := func(phrase string, ref entityRef) {
		norm := textmatch.Normalize(phrase)
		if norm == "" || genericWords[norm] || seen[norm] {
			return
		}
		seen[norm] = true
		x.refs = append(x.refs, ref)
		x.automaton.Add(norm, nil)
	}

	// Sorted iteration keeps pattern indices stable across runs.
	for _, kind := range []Kind{KindPerson, KindPlace, KindOrganization, KindConcept} {
		names := make([]string, 0, len(lexicon[kind]))
		for name := range lexicon[kind] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, phrase := range lexicon[kind][name] {
				add(phrase, entityRef{entity: Entity{Kind: kind, Name: name}})
			}
		}
	}
	for _, def := range taxonomy {
		for _, kw := range def.Keywords {
			add(kw, entityRef{entity: Entity{Kind: KindTopic, Name: textmatch.Normalize(kw)}, topicID: def.ID})
		}
	}

	x.automaton.Build()
	return x
}

// Entities is the set of entities extracted from one title.
type Entities struct {
	People  map[string]bool
	Context map[string]bool
}

// Extract returns the entities in title. Topic keyword entities count only
// when they belong to topicID.
func (x *Extractor) Extract(title, topicID string) Entities {
	ents := Entities{People: map[string]bool{}, Context: map[string]bool{}}
	for _, idx := range x.automaton.Matched(title) {
		ref := x.refs[idx]
		if ref.topicID != "" && ref.topicID != topicID {
			continue
		}
		if ref.entity.Kind.Contextual() {
			ents.Context[ref.entity.key()] = true
		} else {
			ents.People[ref.entity.key()] = true
		}
	}
	return ents
}

// Overlap counts the people and contextual entities a and b share.
func Overlap(a, b Entities) (people, context int) {
	for k := range a.People {
		if b.People[k] {
			people++
		}
	}
	for k := range a.Context {
		if b.Context[k] {
			context++
		}
	}
	return people, context
}
