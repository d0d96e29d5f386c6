// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package textmatch answers "does this text mention X" for every component
// that needs it: taxonomy keywords, clustering entities, persona rules and
// evergreen phrases all go through the same word-boundary rule.
//
// Text and patterns are normalized (lowercased, whitespace collapsed) and a
// pattern only matches as a whole token: "ai" matches "AI stocks rally" but
// not "Ukraine".
package textmatch

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Normalize lowercases s and collapses whitespace runs to single spaces.
// It is also the key normalization for memoized embeddings.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Truncate shortens s to at most n bytes without splitting a UTF-8
// sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// IsWordRune reports whether r is part of a token.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Pattern is a search pattern with caller data.
type Pattern struct {
	Text string
	Data any
}

// Match is one whole-token occurrence of a pattern in normalized text.
type Match struct {
	// Index is the pattern's position in insertion order.
	Index int
	// Pattern is the normalized pattern text.
	Pattern string
	Data    any
	// Start and End are byte offsets into the normalized text.
	Start int
	End   int
}

// Automaton is an Aho-Corasick matcher over a set of patterns. It finds
// every occurrence of every pattern in one pass over the text, then drops
// occurrences that do not sit on token boundaries.
//
//	m := textmatch.New()
//	m.Add("credit card", "us_domestic_finance")
//	m.Add("iran", "place")
//	m.Build()
//	matches := m.FindAll("Trump: credit card companies ...")
type Automaton struct {
	mu       sync.RWMutex
	root     *node
	patterns []Pattern
	built    bool
}

type node struct {
	children map[rune]*node
	failure  *node
	output   []int
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// New creates an empty automaton.
func New() *Automaton {
	return &Automaton{root: newNode()}
}

// Compile builds an automaton from patterns in order.
func Compile(patterns []Pattern) *Automaton {
	a := New()
	for _, p := range patterns {
		a.Add(p.Text, p.Data)
	}
	a.Build()
	return a
}

// Add appends a pattern. Patterns that normalize to empty are ignored but
// still consume an index so callers can map indices back to their input.
func (a *Automaton) Add(text string, data any) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.built = false
	a.patterns = append(a.patterns, Pattern{Text: Normalize(text), Data: data})
	return len(a.patterns) - 1
}

// Build constructs the trie and failure links. It must be called after the
// last Add and before FindAll.
func (a *Automaton) Build() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return
	}

	a.root = newNode()
	for i, p := range a.patterns {
		if p.Text == "" {
			continue
		}
		n := a.root
		for _, ch := range p.Text {
			child, ok := n.children[ch]
			if !ok {
				child = newNode()
				n.children[ch] = child
			}
			n = child
		}
		n.output = append(n.output, i)
	}

	queue := make([]*node, 0, len(a.root.children))
	for _, child := range a.root.children {
		child.failure = a.root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = a.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}

	a.built = true
}

// Len returns the number of patterns added.
func (a *Automaton) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.patterns)
}

// FindAll returns every whole-token occurrence in text, ordered by end
// offset. An unbuilt automaton matches nothing.
func (a *Automaton) FindAll(text string) []Match {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.built || len(a.patterns) == 0 {
		return nil
	}

	normalized := Normalize(text)
	var matches []Match
	n := a.root

	for i, ch := range normalized {
		for n != nil && n.children[ch] == nil {
			n = n.failure
		}
		if n == nil {
			n = a.root
			continue
		}
		n = n.children[ch]

		end := i + utf8.RuneLen(ch)
		for _, idx := range n.output {
			p := a.patterns[idx]
			start := end - len(p.Text)
			if !onBoundary(normalized, p.Text, start, end) {
				continue
			}
			matches = append(matches, Match{
				Index:   idx,
				Pattern: p.Text,
				Data:    p.Data,
				Start:   start,
				End:     end,
			})
		}
	}

	return matches
}

// Matched returns the distinct pattern indices found in text, in pattern
// insertion order.
func (a *Automaton) Matched(text string) []int {
	matches := a.FindAll(text)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		seen[m.Index] = true
	}
	out := make([]int, 0, len(seen))
	for i := 0; i < a.Len(); i++ {
		if seen[i] {
			out = append(out, i)
		}
	}
	return out
}

// Contains reports whether keyword occurs in text as a whole token.
// It is the single-pattern form of the automaton for ad hoc checks.
func Contains(text, keyword string) bool {
	needle := Normalize(keyword)
	if needle == "" {
		return false
	}
	haystack := Normalize(text)

	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)
		if onBoundary(haystack, needle, start, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}

// ContainsAny reports whether any keyword occurs in text as a whole token.
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if Contains(text, kw) {
			return true
		}
	}
	return false
}

// onBoundary checks the token boundaries around text[start:end]. A side
// whose pattern edge is not a word rune (e.g. "u.s.") needs no boundary.
func onBoundary(text, pattern string, start, end int) bool {
	if start < 0 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(pattern)
	if IsWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(pattern)
	if IsWordRune(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(next) {
			return false
		}
	}
	return true
}
