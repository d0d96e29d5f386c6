// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package cluster

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/topic"
)

type fixedComparer struct {
	sim float64
	ok  bool
}

func (f fixedComparer) Compare(context.Context, string, string) (float64, bool) {
	return f.sim, f.ok
}

type fakeJudge struct {
	same  bool
	err   error
	calls int
}

func (f *fakeJudge) SameStory(context.Context, string, string) (bool, error) {
	f.calls++
	return f.same, f.err
}

func item(id, title string, score float64) Item {
	return Item{Signal: models.Signal{ID: id, Title: title}, Score: score}
}

func newTestClusterer(comparer Comparer, judge PairJudge) *Clusterer {
	return NewClusterer(config.Default().Cluster, nil, comparer, judge, zerolog.Nop())
}

// groups returns sorted member lists for order-independent comparison.
func groups(c *Clustering) [][]string {
	var out [][]string
	for _, cl := range c.Clusters() {
		m := append([]string(nil), cl.Members...)
		sort.Strings(m)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestClusterer_SharedContextMerges(t *testing.T) {
	t.Parallel()

	c := newTestClusterer(nil, nil)
	got := c.Cluster(context.Background(), []Item{
		item("a", "Oil prices surge after Iran tensions escalate", 70),
		item("b", "Crude oil jumps as Iran-US tensions rise", 80),
	})
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
	cl, ok := got.ClusterOf("a")
	if !ok || cl.Representative != "b" || cl.Size() != 2 || cl.Relevance != 80 {
		t.Errorf("ClusterOf(a) = %+v", cl)
	}
}

func TestClusterer_Transitive(t *testing.T) {
	t.Parallel()

	c := newTestClusterer(nil, nil)
	got := c.Cluster(context.Background(), []Item{
		item("a", "Iran oil exports fall", 10),
		item("b", "OPEC weighs Iran oil output", 20),
		item("c", "OPEC and Saudi officials discuss oil", 30),
		item("d", "Local bakery wins award", 40),
	})

	want := [][]string{{"a", "b", "c"}, {"d"}}
	if g := groups(got); len(g) != 2 || len(g[0]) != 3 || len(g[1]) != 1 {
		t.Errorf("groups = %v, want %v", g, want)
	}
}

func TestClusterer_PairRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      string
		comparer  Comparer
		judge     *fakeJudge
		want      bool
		wantCalls int
	}{
		{
			name: "person plus context merges",
			a:    "Putin visits China",
			b:    "Putin lands in Beijing",
			want: true,
		},
		{
			name: "single shared context is not enough",
			a:    "Iran holds elections",
			b:    "Iran football team wins",
			want: false,
		},
		{
			name: "generic words are ignored",
			a:    "US president says news",
			b:    "US president breaking news",
			want: false,
		},
		{
			name:     "person only without embeddings does not merge",
			a:        "Musk posts again",
			b:        "Musk buys a boat",
			comparer: fixedComparer{ok: false},
			want:     false,
		},
		{
			name:     "person only above threshold merges",
			a:        "Musk posts again",
			b:        "Musk buys a boat",
			comparer: fixedComparer{sim: 0.9, ok: true},
			judge:    &fakeJudge{same: false},
			want:     true,
		},
		{
			name:     "person only below threshold stays apart",
			a:        "Musk posts again",
			b:        "Musk buys a boat",
			comparer: fixedComparer{sim: 0.4, ok: true},
			want:     false,
		},
		{
			name:      "near threshold asks the judge",
			a:         "Musk posts again",
			b:         "Musk buys a boat",
			comparer:  fixedComparer{sim: 0.68, ok: true},
			judge:     &fakeJudge{same: true},
			want:      true,
			wantCalls: 1,
		},
		{
			name:      "judge error falls back to embedding",
			a:         "Musk posts again",
			b:         "Musk buys a boat",
			comparer:  fixedComparer{sim: 0.72, ok: true},
			judge:     &fakeJudge{err: errors.New("timeout")},
			want:      true,
			wantCalls: 1,
		},
		{
			name: "nothing shared never merges",
			a:    "Musk posts again",
			b:    "Iran oil exports fall",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var judge PairJudge
			if tt.judge != nil {
				judge = tt.judge
			}
			c := newTestClusterer(tt.comparer, judge)
			got := c.Cluster(context.Background(), []Item{item("a", tt.a, 1), item("b", tt.b, 2)})
			if merged := got.Len() == 1; merged != tt.want {
				t.Errorf("merged = %v, want %v", merged, tt.want)
			}
			if tt.judge != nil && tt.judge.calls != tt.wantCalls {
				t.Errorf("judge calls = %d, want %d", tt.judge.calls, tt.wantCalls)
			}
		})
	}
}

func TestClusterer_TopicKeywordsAreContext(t *testing.T) {
	t.Parallel()

	taxonomy := []models.TopicDefinition{{ID: "housing", Keywords: []string{"mortgage", "housing"}}}
	c := NewClusterer(config.Default().Cluster, taxonomy, nil, nil, zerolog.Nop())
	match := topic.Match{TopicID: "housing"}

	a := Item{Signal: models.Signal{ID: "a", Title: "Mortgage rates hit housing market"}, Topic: match}
	b := Item{Signal: models.Signal{ID: "b", Title: "Housing slump deepens as mortgage costs climb"}, Topic: match}
	if got := c.Cluster(context.Background(), []Item{a, b}); got.Len() != 1 {
		t.Errorf("Len() = %d, want 1 for shared topic keywords", got.Len())
	}

	// Keywords of a topic the signals were not matched to do not count.
	a.Topic, b.Topic = topic.Match{}, topic.Match{}
	if got := c.Cluster(context.Background(), []Item{a, b}); got.Len() != 2 {
		t.Errorf("Len() = %d, want 2 without topic match", got.Len())
	}
}

func TestClusterer_NeverDropsSignals(t *testing.T) {
	t.Parallel()

	c := newTestClusterer(nil, nil)
	items := []Item{
		item("1", "Iran oil exports fall", 1),
		item("2", "Iran oil output rises", 2),
		item("3", "Cats", 3),
		item("4", "", 4),
	}
	got := c.Cluster(context.Background(), items)

	seen := map[string]int{}
	for _, cl := range got.Clusters() {
		for _, m := range cl.Members {
			seen[m]++
		}
	}
	for _, it := range items {
		if seen[it.Signal.ID] != 1 {
			t.Errorf("signal %s appears %d times", it.Signal.ID, seen[it.Signal.ID])
		}
	}
	if reps := got.Representatives(); len(reps) != 3 || reps[0].Signal.ID != "4" {
		t.Errorf("Representatives() = %+v", reps)
	}
}

func TestClustering_MembershipEdits(t *testing.T) {
	t.Parallel()

	c := newTestClusterer(nil, nil)
	got := c.Cluster(context.Background(), []Item{
		item("a", "Iran oil exports fall", 50),
		item("b", "Iran oil output rises", 90),
		item("c", "Cats", 10),
	})
	story, _ := got.ClusterOf("a")
	single, _ := got.ClusterOf("c")

	if err := got.AddMember(story.ID, "c"); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after emptying singleton", got.Len())
	}
	if _, ok := got.ClusterOf("c"); !ok {
		t.Fatal("c lost")
	}
	if cl, _ := got.ClusterOf("c"); cl.ID != story.ID || cl.Size() != 3 {
		t.Errorf("ClusterOf(c) = %+v", cl)
	}
	if err := got.AddMember(single.ID, "a"); !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("AddMember to dissolved cluster err = %v", err)
	}

	newID, err := got.RemoveMember("b")
	if err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if cl, _ := got.ClusterOf("a"); cl.Representative != "a" || cl.Size() != 2 {
		t.Errorf("after removing b, cluster = %+v, want a as representative", cl)
	}
	if cl, _ := got.ClusterOf("b"); cl.ID != newID || cl.Size() != 1 {
		t.Errorf("ClusterOf(b) = %+v, want singleton %s", cl, newID)
	}

	if same, err := got.RemoveMember("b"); err != nil || same != newID {
		t.Errorf("RemoveMember on singleton = %q, %v", same, err)
	}
	if _, err := got.RemoveMember("zzz"); !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("RemoveMember(unknown) err = %v", err)
	}
}
