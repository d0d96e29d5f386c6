// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/cluster"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/evidence"
	"github.com/tomtom215/trendscout/internal/learning"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/pipeline"
	"github.com/tomtom215/trendscout/internal/store"
	"github.com/tomtom215/trendscout/internal/validation"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *models.APIError `json:"error"`
}

type fakeRunner struct {
	result *pipeline.RunResult
	err    error
}

func (f *fakeRunner) Run(context.Context, pipeline.RunRequest) (*pipeline.RunResult, error) {
	return f.result, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	events  []models.FeedbackEvent
	err     error
	pingErr error
}

func (f *fakeStore) AppendFeedback(_ context.Context, e *models.FeedbackEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = "generated"
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeLearner struct {
	snap   *learning.Snapshot
	status learning.Status
	err    error
}

func (f *fakeLearner) Current() *learning.Snapshot { return f.snap }
func (f *fakeLearner) Status() learning.Status     { return f.status }
func (f *fakeLearner) Run(context.Context) (*learning.Snapshot, error) {
	return f.snap, f.err
}

func newTestServer(runner Runner, st FeedbackStore, l Learner) http.Handler {
	h := NewHandler(runner, st, l, "test")
	return NewRouter(h, NewMiddleware(nil)).Setup()
}

func do(t *testing.T, srv http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestCreateRun_ErrorMapping(t *testing.T) {
	t.Parallel()

	verr := validation.ValidateStruct(&pipeline.RunRequest{})
	if verr == nil {
		t.Fatal("empty run request should fail validation")
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no signals", pipeline.ErrNoSignals, http.StatusBadRequest, codeValidation},
		{"too many", fmt.Errorf("%w: 3 > 2", pipeline.ErrTooManySignals), http.StatusBadRequest, codeValidation},
		{"validation", verr, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, codeRequestTimeout},
		{"internal", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeRunner{err: tt.err}, &fakeStore{}, nil)
			rec, env := do(t, srv, http.MethodPost, "/api/v1/runs", `{"signals":[{"id":"s1","title":"t"}]}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestCreateRun_BadJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRunner{}, &fakeStore{}, nil)
	for _, body := range []string{"", "{not json"} {
		rec, env := do(t, srv, http.MethodPost, "/api/v1/runs", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if env.Error == nil || env.Error.Code != codeBadRequest {
			t.Errorf("body %q: error = %+v", body, env.Error)
		}
	}
}

func TestCreateRun_Success(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRunner{result: &pipeline.RunResult{RunID: "run-1"}}, &fakeStore{}, nil)
	rec, env := do(t, srv, http.MethodPost, "/api/v1/runs", `{"signals":[{"id":"s1","title":"t"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-1" {
		t.Errorf("run_id = %q", got.RunID)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
}

func TestClusterMembershipRoutes(t *testing.T) {
	t.Parallel()

	items := []cluster.Item{
		{Signal: models.Signal{ID: "a", Title: "quiet harbor reopens"}, Score: 30},
		{Signal: models.Signal{ID: "b", Title: "market dip deepens"}, Score: 20},
		{Signal: models.Signal{ID: "c", Title: "school vote delayed"}, Score: 10},
	}
	clusterer := cluster.NewClusterer(config.Default().Cluster, nil, nil, nil, zerolog.Nop())
	clustering := clusterer.Cluster(context.Background(), items)

	runner := &fakeRunner{result: &pipeline.RunResult{RunID: "run-9", Clustering: clustering}}
	srv := newTestServer(runner, &fakeStore{}, nil)

	clustersOf := func(env envelope) []cluster.Cluster {
		t.Helper()
		var out []cluster.Cluster
		if err := json.Unmarshal(env.Data, &out); err != nil {
			t.Fatalf("decode clusters: %v", err)
		}
		return out
	}

	if rec, _ := do(t, srv, http.MethodGet, "/api/v1/runs/run-9/clusters", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("clusters before run status = %d, want 404", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodPost, "/api/v1/runs", `{"signals":[{"id":"a","title":"t"}]}`); rec.Code != http.StatusOK {
		t.Fatalf("run status = %d", rec.Code)
	}

	rec, env := do(t, srv, http.MethodGet, "/api/v1/runs/run-9/clusters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	initial := clustersOf(env)
	if len(initial) != 3 {
		t.Fatalf("clusters = %+v, want 3 singletons", initial)
	}
	bCluster, _ := clustering.ClusterOf("b")

	rec, env = do(t, srv, http.MethodPut, "/api/v1/runs/run-9/clusters/"+bCluster.ID+"/members/a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	merged := clustersOf(env)
	if len(merged) != 2 {
		t.Fatalf("clusters after add = %+v, want 2", merged)
	}
	if got, _ := clustering.ClusterOf("a"); got.ID != bCluster.ID || got.Representative != "a" {
		t.Errorf("a is in %+v, want %s led by a", got, bCluster.ID)
	}

	rec, env = do(t, srv, http.MethodDelete, "/api/v1/runs/run-9/clusters/"+bCluster.ID+"/members/a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d: %s", rec.Code, rec.Body.String())
	}
	if split := clustersOf(env); len(split) != 3 {
		t.Errorf("clusters after remove = %+v, want 3", split)
	}

	notFound := []struct {
		name   string
		method string
		path   string
	}{
		{"remove from wrong cluster", http.MethodDelete, "/api/v1/runs/run-9/clusters/" + bCluster.ID + "/members/a"},
		{"unknown cluster", http.MethodPut, "/api/v1/runs/run-9/clusters/nope/members/a"},
		{"unknown signal", http.MethodPut, "/api/v1/runs/run-9/clusters/" + bCluster.ID + "/members/zz"},
		{"unknown run", http.MethodGet, "/api/v1/runs/run-0/clusters"},
	}
	for _, tt := range notFound {
		rec, env := do(t, srv, tt.method, tt.path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", tt.name, rec.Code)
		}
		if env.Error == nil || env.Error.Code != codeNotFound {
			t.Errorf("%s: error = %+v, want %s", tt.name, env.Error, codeNotFound)
		}
	}
}

func TestRecordFeedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		storeErr   error
		wantStatus int
		wantStored int
	}{
		{
			name:       "valid",
			body:       `{"recommendation_id":"r1","topic_ids":["energy"],"action":"liked"}`,
			wantStatus: http.StatusCreated,
			wantStored: 1,
		},
		{
			name:       "missing action",
			body:       `{"recommendation_id":"r1","topic_ids":["energy"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown action",
			body:       `{"recommendation_id":"r1","topic_ids":["energy"],"action":"shared"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no topics",
			body:       `{"recommendation_id":"r1","topic_ids":[],"action":"liked"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "replayed id",
			body:       `{"id":"evt-1","recommendation_id":"r1","topic_ids":["energy"],"action":"rejected"}`,
			storeErr:   fmt.Errorf("%w: evt-1", store.ErrDuplicateEvent),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "store failure",
			body:       `{"recommendation_id":"r1","topic_ids":["energy"],"action":"rejected"}`,
			storeErr:   errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &fakeStore{err: tt.storeErr}
			srv := newTestServer(&fakeRunner{}, st, nil)
			rec, env := do(t, srv, http.MethodPost, "/api/v1/feedback", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(st.events) != tt.wantStored {
				t.Errorf("stored %d events, want %d", len(st.events), tt.wantStored)
			}
			if tt.wantStatus == http.StatusBadRequest && (env.Error == nil || env.Error.Code != "VALIDATION_ERROR") {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
		})
	}
}

func TestLearningRoutes(t *testing.T) {
	t.Parallel()

	snap := &learning.Snapshot{
		Version:  "v1",
		Sequence: 3,
		Weights:  map[string]models.PatternWeight{"energy": {TopicID: "energy", Weight: 2}},
	}

	tests := []struct {
		name       string
		learner    Learner
		method     string
		path       string
		wantStatus int
	}{
		{"weights", &fakeLearner{snap: snap}, http.MethodGet, "/api/v1/weights", http.StatusOK},
		{"weights disabled", nil, http.MethodGet, "/api/v1/weights", http.StatusServiceUnavailable},
		{"trigger", &fakeLearner{snap: snap}, http.MethodPost, "/api/v1/learning/run", http.StatusOK},
		{"trigger busy", &fakeLearner{err: learning.ErrRunInProgress}, http.MethodPost, "/api/v1/learning/run", http.StatusConflict},
		{"trigger failed", &fakeLearner{err: errors.New("store down")}, http.MethodPost, "/api/v1/learning/run", http.StatusInternalServerError},
		{"trigger disabled", nil, http.MethodPost, "/api/v1/learning/run", http.StatusServiceUnavailable},
		{"wrong method", &fakeLearner{snap: snap}, http.MethodGet, "/api/v1/learning/run", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeRunner{}, &fakeStore{}, tt.learner)
			rec, _ := do(t, srv, tt.method, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      *fakeStore
		learner    Learner
		wantStatus string
		wantReady  int
	}{
		{"healthy", &fakeStore{}, &fakeLearner{snap: &learning.Snapshot{Version: "v2"}}, "healthy", http.StatusOK},
		{"store down", &fakeStore{pingErr: errors.New("closed")}, nil, "degraded", http.StatusServiceUnavailable},
		{"learning failed", &fakeStore{}, &fakeLearner{status: learning.Status{LastError: "boom"}}, "degraded", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeRunner{}, tt.store, tt.learner)

			rec, env := do(t, srv, http.MethodGet, "/api/v1/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("health status = %d", rec.Code)
			}
			var health HealthStatus
			if err := json.Unmarshal(env.Data, &health); err != nil {
				t.Fatal(err)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", health.Status, tt.wantStatus)
			}

			rec, _ = do(t, srv, http.MethodGet, "/api/v1/health/ready", "")
			if rec.Code != tt.wantReady {
				t.Errorf("ready = %d, want %d", rec.Code, tt.wantReady)
			}
			rec, _ = do(t, srv, http.MethodGet, "/api/v1/health/live", "")
			if rec.Code != http.StatusOK {
				t.Errorf("live = %d", rec.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mc := DefaultMiddlewareConfig()
	mc.RateLimitRequests = 2
	mc.RateLimitWindow = time.Minute
	srv := NewRouter(NewHandler(&fakeRunner{}, &fakeStore{}, &fakeLearner{snap: &learning.Snapshot{}}, "test"), NewMiddleware(mc)).Setup()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/weights", "")
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Health probes are outside the limited group.
	for i := 0; i < 3; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/health/live", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("live probe %d = %d", i, rec.Code)
		}
	}
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	mc := MiddlewareConfigFromServer(config.ServerConfig{})
	srv := NewRouter(NewHandler(&fakeRunner{}, &fakeStore{}, &fakeLearner{snap: &learning.Snapshot{}}, "test"), NewMiddleware(mc)).Setup()
	for i := 0; i < 5; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/weights", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	mc := MiddlewareConfigFromServer(config.ServerConfig{CORSOrigins: []string{"https://studio.example.com"}})
	srv := NewRouter(NewHandler(&fakeRunner{}, &fakeStore{}, nil, "test"), NewMiddleware(mc)).Setup()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/feedback", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://studio.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestNotFoundAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRunner{}, &fakeStore{}, nil)

	rec, env := do(t, srv, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("not found = %d %+v", rec.Code, env.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	srv.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", mrec.Code)
	}
	if !strings.Contains(mrec.Body.String(), "trendscout_") {
		t.Error("metrics output has no trendscout series")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"line\nbreak", `line\x0abreak`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestFeedbackLearningRunFlow drives the real store, learner and engine:
// feedback in, learning run, weights applied to the next scoring run.
func TestRecordFeedbackReplayKeepsFirstEvent(t *testing.T) {
	t.Parallel()

	st, err := store.Open(store.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	srv := newTestServer(&fakeRunner{}, st, nil)

	const event = `{"id":"evt-1","recommendation_id":"r1","topic_ids":["energy"],` +
		`"persona_id":"p1","timestamp":"2026-03-04T09:00:00Z","action":"%s"}`

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/feedback", fmt.Sprintf(event, "produced"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first post status = %d: %s", rec.Code, rec.Body.String())
	}
	for _, action := range []string{"rejected", "produced"} {
		rec, env := do(t, srv, http.MethodPost, "/api/v1/feedback", fmt.Sprintf(event, action))
		if rec.Code != http.StatusConflict {
			t.Fatalf("replay %s status = %d, want 409", action, rec.Code)
		}
		if env.Error == nil || env.Error.Code != codeConflict {
			t.Errorf("replay %s error = %+v, want %s", action, env.Error, codeConflict)
		}
	}

	events, err := st.ListFeedback(context.Background(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Action != models.ActionProduced {
		t.Errorf("log = %+v, want the single produced event", events)
	}
	counts, err := st.ServedCounts(context.Background(), "2026-W10")
	if err != nil {
		t.Fatal(err)
	}
	if counts["p1"] != 1 {
		t.Errorf("served[p1] = %d, want 1", counts["p1"])
	}
}

func TestFeedbackLearningRunFlow(t *testing.T) {
	t.Parallel()

	st, err := store.Open(store.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Taxonomy = []models.TopicDefinition{
		{ID: "energy", Names: []string{"Energy"}, Keywords: []string{"oil", "crude"}},
	}
	cfg.Personas = []models.Persona{
		{ID: "energy-watchers", MatchRules: models.PersonaRules{TopicIDs: []string{"energy"}}, WeeklyQuota: 3},
	}

	learner := learning.NewLearner(st, cfg.Learning, zerolog.Nop())
	if err := learner.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine := pipeline.NewEngine(cfg, pipeline.Dependencies{Weights: learner, Served: st}, zerolog.Nop())
	srv := newTestServer(engine, st, learner)

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/feedback",
		`{"recommendation_id":"r1","topic_ids":["energy"],"persona_id":"energy-watchers","action":"liked"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("feedback status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := do(t, srv, http.MethodPost, "/api/v1/learning/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("learning status = %d: %s", rec.Code, rec.Body.String())
	}
	var run learningRunResponse
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatal(err)
	}
	if got := run.Snapshot.Weight("energy"); got != models.MaxPatternWeight {
		t.Errorf("energy weight = %v, want %v", got, models.MaxPatternWeight)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/weights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("weights status = %d", rec.Code)
	}
	var current learning.Snapshot
	if err := json.Unmarshal(env.Data, &current); err != nil {
		t.Fatal(err)
	}
	if current.Version != run.Snapshot.Version {
		t.Errorf("weights version = %q, want %q", current.Version, run.Snapshot.Version)
	}

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	body, err := json.Marshal(pipeline.RunRequest{
		Signals: []models.Signal{
			{ID: "s1", Title: "Oil prices surge as Iran tensions rise", SourceType: models.SourceNews},
		},
		Evidence: evidence.Data{SearchTrends: []evidence.SearchTrend{{Query: "oil prices", Volume: 500}}},
		Now:      &now,
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, env = do(t, srv, http.MethodPost, "/api/v1/runs", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		WeightsVersion  string                  `json:"weights_version"`
		Recommendations []models.Recommendation `json:"recommendations"`
		Report          pipeline.Report         `json:"report"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.WeightsVersion != run.Snapshot.Version {
		t.Errorf("run used weights %q, want %q", result.WeightsVersion, run.Snapshot.Version)
	}
	if result.Report.Scored != 1 {
		t.Errorf("scored = %d, want 1", result.Report.Scored)
	}
}
