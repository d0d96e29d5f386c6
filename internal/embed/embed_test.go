// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package embed

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testConfig(url string) HTTPConfig {
	cfg := DefaultHTTPConfig(url)
	cfg.APIKey = "test-key"
	cfg.RequestsPerSecond = 1000
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func TestHTTPEmbedder_EmbedBatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		// Answer in reverse order to exercise index placement.
		resp := embedResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embedding{Embedding: []float32{float32(i), 1}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e := NewHTTPEmbedder(testConfig(server.URL), zerolog.Nop())
	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("len = %d, want 3", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vectors[%d][0] = %v, want %d", i, v[0], i)
		}
	}
}

func TestHTTPEmbedder_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Data: []embedding{{Embedding: []float32{1}, Index: 0}}})
	}))
	defer server.Close()

	e := NewHTTPEmbedder(testConfig(server.URL), zerolog.Nop())
	if _, err := e.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestHTTPEmbedder_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	e := NewHTTPEmbedder(testConfig(server.URL), zerolog.Nop())
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestHTTPEmbedder_Unconfigured(t *testing.T) {
	t.Parallel()

	e := NewHTTPEmbedder(HTTPConfig{}, zerolog.Nop())
	if e.Available() {
		t.Error("Available() = true with empty URL")
	}
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	seen  []string
}

func (c *countingEmbedder) Available() bool { return true }

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.seen = append(c.seen, text)
	return []float32{float32(len(text)), 1}, nil
}

type mapStore struct {
	mu   sync.Mutex
	data map[string][]float32
}

func (s *mapStore) GetEmbedding(key string) ([]float32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) PutEmbedding(key string, v []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	return nil
}

func TestMemo_CachesNormalizedText(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{}
	store := &mapStore{data: map[string][]float32{}}
	m := NewMemo(inner, "m1", 10, store, zerolog.Nop())

	ctx := context.Background()
	if _, err := m.Embed(ctx, "Hello   World"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Embed(ctx, "hello world"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", inner.calls)
	}
	if inner.seen[0] != "hello world" {
		t.Errorf("upstream text = %q, want normalized", inner.seen[0])
	}
	if _, ok := store.data[Key("m1", "HELLO WORLD")]; !ok {
		t.Error("vector was not persisted")
	}
}

func TestMemo_ReadsThroughStore(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{}
	store := &mapStore{data: map[string][]float32{Key("m1", "cached"): {9, 9}}}
	m := NewMemo(inner, "m1", 10, store, zerolog.Nop())

	v, err := m.Embed(context.Background(), "cached")
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 9 || inner.calls != 0 {
		t.Errorf("got %v with %d upstream calls, want store hit", v, inner.calls)
	}
}

func TestMemo_Unavailable(t *testing.T) {
	t.Parallel()

	m := NewMemo(Unavailable{}, "m", 1, nil, zerolog.Nop())
	if _, err := m.Embed(context.Background(), "a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

// batchCounter is a countingEmbedder that also accepts batches.
type batchCounter struct {
	countingEmbedder
	batches [][]string
}

func (b *batchCounter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.mu.Lock()
	b.batches = append(b.batches, append([]string(nil), texts...))
	b.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 2}
	}
	return out, nil
}

func TestMemo_EmbedBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mapStore{data: map[string][]float32{Key("m1", "stored"): {9, 9}}}

	t.Run("one upstream batch for misses", func(t *testing.T) {
		t.Parallel()
		inner := &batchCounter{}
		m := NewMemo(inner, "m1", 10, store, zerolog.Nop())

		got, err := m.EmbedBatch(ctx, []string{"Oil  Prices", "stored", "oil prices", "gas"})
		if err != nil {
			t.Fatalf("EmbedBatch() error = %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		if len(inner.batches) != 1 {
			t.Fatalf("upstream batches = %d, want 1", len(inner.batches))
		}
		if b := inner.batches[0]; len(b) != 2 || b[0] != "oil prices" || b[1] != "gas" {
			t.Errorf("upstream batch = %q, want [oil prices gas]", b)
		}
		if got[1][0] != 9 {
			t.Errorf("stored text vector = %v, want store hit", got[1])
		}
		if got[0][0] != 10 || got[2][0] != 10 || got[3][0] != 3 {
			t.Errorf("vectors out of order: %v", got)
		}
		if inner.calls != 0 {
			t.Errorf("single Embed calls = %d, want 0", inner.calls)
		}

		// Warmed texts no longer go upstream.
		if _, err := m.Embed(ctx, "GAS"); err != nil {
			t.Fatal(err)
		}
		if inner.calls != 0 || len(inner.batches) != 1 {
			t.Errorf("upstream used after warm: calls=%d batches=%d", inner.calls, len(inner.batches))
		}
	})

	t.Run("falls back to single calls", func(t *testing.T) {
		t.Parallel()
		inner := &countingEmbedder{}
		m := NewMemo(inner, "m2", 10, nil, zerolog.Nop())

		got, err := m.EmbedBatch(ctx, []string{"a", "bb", "a"})
		if err != nil {
			t.Fatalf("EmbedBatch() error = %v", err)
		}
		if inner.calls != 2 {
			t.Errorf("upstream calls = %d, want 2", inner.calls)
		}
		if got[0][0] != 1 || got[1][0] != 2 || got[2][0] != 1 {
			t.Errorf("vectors = %v", got)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()
		m := NewMemo(Unavailable{}, "m3", 1, nil, zerolog.Nop())
		if _, err := m.EmbedBatch(ctx, []string{"a"}); !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})
}
