package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/truthcore/internal/logging"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/pipeline"
)

type constantSource float64

func (c constantSource) Float64() float64 { return float64(c) }

// recordingScorer captures the last request
type recordingScorer struct {
	last model.ScoreRequest
	err  error
}

func (r *recordingScorer) Score(ctx context.Context, req model.ScoreRequest) (*model.Report, error) {
	r.last = req
	if r.err != nil {
		return nil, r.err
	}
	return &model.Report{ID: "r1", Claim: req.Claim, Score: model.Score{Confidence: 50, Level: "low"}}, nil
}

func newTestServer(scorer Scorer, passphrase string) *Server {
	return New(scorer, model.ServerConfig{Addr: ":0", Passphrase: passphrase}, logging.Discard())
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_Open(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "secret")

	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request ID header")
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestAuth_Passphrase(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "secret")
	body := `{"claim": "Earth is flat"}`

	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing passphrase: expected 401, got %d", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", body, map[string]string{PassphraseHeader: "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong passphrase: expected 401, got %d", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", body, map[string]string{PassphraseHeader: "secret"}); rec.Code != http.StatusOK {
		t.Errorf("correct passphrase: expected 200, got %d", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("metrics without passphrase: expected 401, got %d", rec.Code)
	}
}

func TestAuth_Disabled(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "")

	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", `{"claim": "x"}`, nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with gate disabled, got %d", rec.Code)
	}
}

func TestScoreClaim_RequestMapping(t *testing.T) {
	scorer := &recordingScorer{}
	s := newTestServer(scorer, "")

	body := `{
		"claim": "Earth is flat",
		"source": "unreliable",
		"source_url": "https://hoax.example",
		"evidences": ["one"],
		"evidence": "two\n\nthree",
		"history": [0.2, "0.3"]
	}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := scorer.last
	if got.Claim != "Earth is flat" || got.Source != "unreliable" || got.SourceURL != "https://hoax.example" {
		t.Errorf("unexpected request: %+v", got)
	}
	if !reflect.DeepEqual(got.Evidences, []string{"one", "two", "three"}) {
		t.Errorf("unexpected evidences: %q", got.Evidences)
	}
	if !reflect.DeepEqual(got.History, []string{"0.2", "0.3"}) {
		t.Errorf("unexpected history: %q", got.History)
	}
}

func TestScoreClaim_HistoryString(t *testing.T) {
	scorer := &recordingScorer{}
	s := newTestServer(scorer, "")

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", `{"claim": "x", "history": "0.8, 0.9,"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !reflect.DeepEqual(scorer.last.History, []string{"0.8", "0.9"}) {
		t.Errorf("unexpected history: %q", scorer.last.History)
	}
}

func TestScoreClaim_BadBody(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "")

	for _, body := range []string{"", "{", `{"claim": 5}`, `{"unknown": true}`, `{"history": {"a": 1}}`} {
		if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", body, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestScoreClaim_ScorerErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{pipeline.ErrEmptyClaim, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s := newTestServer(&recordingScorer{err: tt.err}, "")
		if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score", `{"claim": "x"}`, nil); rec.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
	}
}

func TestScoreClaim_EndToEnd(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Scoring.ConsistencyMode = model.ConsistencySimulated
	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: logging.Discard(), Random: constantSource(0.5)})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	s := newTestServer(p, "")

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/score",
		`{"claim": "Earth is flat", "source": "unreliable", "evidences": ["x"], "history": [0.2, 0.3]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Score.Confidence != 43.00 {
		t.Errorf("expected 43.00, got %v", report.Score.Confidence)
	}
	if len(report.Breakdown) != 4 || report.Breakdown[3].Label != "Checked for sensationalism." {
		t.Errorf("unexpected breakdown: %+v", report.Breakdown)
	}

	// Malformed history
	rec = do(t, s.Handler(), http.MethodPost, "/api/v1/score", `{"claim": "x", "history": ["abc"]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed history, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "abc") {
		t.Errorf("expected offending entry in error, got %s", rec.Body.String())
	}

	// Empty claim
	rec = do(t, s.Handler(), http.MethodPost, "/api/v1/score", `{"claim": "  "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty claim, got %d", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "")

	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/feedback", `{"report_id": "r1", "helpful": false, "comment": "source mislabelled"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "accepted" || body["id"] == "" {
		t.Errorf("unexpected body: %v", body)
	}

	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/feedback", `{"comment": "no target"}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without report_id or claim, got %d", rec.Code)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "")
	id := "7f1d7c6e-3b8a-4a7e-9c57-2f0a3c1b9d11"

	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/health", "", map[string]string{RequestIDHeader: id})
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("expected request ID %s, got %s", id, got)
	}

	rec = do(t, s.Handler(), http.MethodGet, "/api/v1/health", "", map[string]string{RequestIDHeader: "not-a-uuid"})
	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Errorf("expected a fresh request ID, got %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(&recordingScorer{}, "")

	if rec := do(t, s.Handler(), http.MethodGet, "/api/v1/score", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

// syncBuffer is a strings.Builder safe for concurrent log writes
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestListenAndServe_WarnsOnceWithoutPassphrase(t *testing.T) {
	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := New(&recordingScorer{}, model.ServerConfig{Addr: "127.0.0.1:0"}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.ListenAndServe(ctx); err != nil {
		t.Fatalf("ListenAndServe failed: %v", err)
	}

	if n := strings.Count(logs.String(), "passphrase not set"); n != 1 {
		t.Errorf("expected one passphrase warning, got %d:\n%s", n, logs.String())
	}
}
