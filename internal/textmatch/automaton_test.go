// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package textmatch

import (
	"reflect"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"  Oil   Prices\tSURGE ", "oil prices surge"},
		{"", ""},
		{"Iran-US", "iran-us"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"inside two-byte rune", "caf\u00e9!", 4, "caf"},
		{"after two-byte rune", "caf\u00e9!", 5, "caf\u00e9"},
		{"inside four-byte rune", "ok\U0001F600", 4, "ok"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		got := Truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("%s: Truncate(%q, %d) = %q, want %q", tt.name, tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("%s: result %q is not valid UTF-8", tt.name, got)
		}
	}
}

func TestAutomaton_OverlappingPatterns(t *testing.T) {
	t.Parallel()

	a := Compile([]Pattern{{Text: "he"}, {Text: "she"}, {Text: "hers"}, {Text: "ushers"}})

	// Only the whole token survives the boundary filter.
	matches := a.FindAll("the ushers left")
	if len(matches) != 1 {
		t.Fatalf("FindAll() = %+v, want one match", matches)
	}
	if matches[0].Pattern != "ushers" || matches[0].Start != 4 || matches[0].End != 10 {
		t.Errorf("match = %+v, want ushers at [4,10)", matches[0])
	}
}

func TestAutomaton_WordBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		text     string
		want     []int
	}{
		{"short keyword inside word", []string{"ai"}, "Ukraine aid talks resume", nil},
		{"short keyword as token", []string{"ai"}, "AI stocks rally", []int{0}},
		{"hyphen is a boundary", []string{"iran", "us"}, "Crude oil jumps as Iran-US tensions rise", []int{0, 1}},
		{"possessive", []string{"iran"}, "Iran's response", []int{0}},
		{"phrase", []string{"credit card"}, "Trump: credit card companies", []int{0}},
		{"phrase spacing normalized", []string{"credit  card"}, "CREDIT\tCARD limits", []int{0}},
		{"plural is a different token", []string{"tariff"}, "new tariffs announced", nil},
		{"punctuated pattern", []string{"u.s."}, "the u.s. economy", []int{0}},
		{"unicode letters", []string{"são paulo"}, "Floods in São Paulo", []int{0}},
		{"insertion order", []string{"oil", "crude"}, "crude oil", []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := New()
			for _, p := range tt.patterns {
				a.Add(p, nil)
			}
			a.Build()

			got := a.Matched(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Matched(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAutomaton_RepeatedOccurrences(t *testing.T) {
	t.Parallel()

	a := Compile([]Pattern{{Text: "oil", Data: "energy"}})
	matches := a.FindAll("oil, oil and more oil")
	if len(matches) != 3 {
		t.Fatalf("len(FindAll()) = %d, want 3", len(matches))
	}
	if matches[0].Data != "energy" {
		t.Errorf("Data = %v, want energy", matches[0].Data)
	}
	if got := a.Matched("oil, oil and more oil"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Matched() = %v, want [0]", got)
	}
}

func TestAutomaton_EmptyAndUnbuilt(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add("oil", nil)
	if got := a.FindAll("oil"); got != nil {
		t.Errorf("unbuilt FindAll() = %v, want nil", got)
	}

	idx := a.Add("   ", nil)
	a.Build()
	if idx != 1 {
		t.Errorf("Add(blank) index = %d, want 1", idx)
	}
	if got := a.Matched("oil"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Matched() = %v, want [0]", got)
	}
	if got := New().FindAll("anything"); got != nil {
		t.Errorf("empty FindAll() = %v, want nil", got)
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text, keyword string
		want          bool
	}{
		{"Oil prices surge", "oil", true},
		{"Boiling point", "oil", false},
		{"spoil the oil", "oil", true},
		{"anything", "", false},
		{"Fed raises rates", "fed", true},
		{"Fedex earnings", "fed", false},
	}
	for _, tt := range tests {
		if got := Contains(tt.text, tt.keyword); got != tt.want {
			t.Errorf("Contains(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.want)
		}
	}

	if !ContainsAny("Bitcoin hits record", []string{"ether", "bitcoin"}) {
		t.Error("ContainsAny() = false, want true")
	}
}

func TestAutomaton_ConcurrentSearch(t *testing.T) {
	t.Parallel()

	a := Compile([]Pattern{{Text: "iran"}, {Text: "oil"}, {Text: "opec"}})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := len(a.Matched("OPEC cuts oil output as Iran objects")); got != 3 {
				t.Errorf("Matched() len = %d, want 3", got)
			}
		}()
	}
	wg.Wait()
}
