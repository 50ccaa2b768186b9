package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/budget"
	"github.com/tollgate-ai/tollgate/pkg/cache"
	"github.com/tollgate-ai/tollgate/pkg/classify"
	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/costs"
	"github.com/tollgate-ai/tollgate/pkg/dispatch"
	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

type stubClient struct {
	result *models.InvokeResult
	err    error
}

func (s *stubClient) Invoke(_ context.Context, _ string, _ []models.ChatMessage, _ dispatch.InvokeOptions) (*models.InvokeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, weeklyUsd float64, client dispatch.InferenceClient) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Budget.WeeklyUsd = weeklyUsd

	mem := store.NewMemory()
	g, err := budget.New(context.Background(), cfg.Budget, mem)
	if err != nil {
		t.Fatal(err)
	}
	c := cache.New(mem, time.Hour)
	d := dispatch.New(classify.New(cfg.Tiers), costs.New(cfg.Models), c, g, client, mem, nil)
	return New(":0", d, g, c, mem)
}

func postDispatch(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/dispatch", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestDispatchEndpoint(t *testing.T) {
	client := &stubClient{result: &models.InvokeResult{
		Content: "patched", InputTokens: 10, OutputTokens: 20,
	}}
	srv := newTestServer(t, 50.0, client)

	w := postDispatch(t, srv, `{"text":"Fix a typo in the README"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var res models.DispatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.Content != "patched" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Model != "claude-haiku-4-5" {
		t.Errorf("model = %s", res.Model)
	}
}

func TestDispatchEndpointBudgetRejection(t *testing.T) {
	client := &stubClient{result: &models.InvokeResult{Content: "x"}}
	srv := newTestServer(t, 0.0000001, client)

	w := postDispatch(t, srv, `{"text":"Fix a typo in the README"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	var res models.DispatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Reason != "budget_exceeded" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDispatchEndpointBadBody(t *testing.T) {
	srv := newTestServer(t, 50.0, &stubClient{})

	w := postDispatch(t, srv, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDispatchEndpointProviderFailure(t *testing.T) {
	srv := newTestServer(t, 50.0, &stubClient{err: context.DeadlineExceeded})

	w := postDispatch(t, srv, `{"text":"Fix a typo in the README"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestDispatchEndpointMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, 50.0, &stubClient{})

	req := httptest.NewRequest(http.MethodGet, "/v1/dispatch", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	srv := newTestServer(t, 25.0, &stubClient{})

	req := httptest.NewRequest(http.MethodGet, "/v1/budget", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		State    models.BudgetState    `json:"state"`
		Decision models.BudgetDecision `json:"decision"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.State.BudgetUsd != 25.0 {
		t.Errorf("budget = %v", body.State.BudgetUsd)
	}
	if !body.Decision.Allowed {
		t.Error("fresh window should allow")
	}
}

func TestBudgetResetEndpoint(t *testing.T) {
	client := &stubClient{result: &models.InvokeResult{Content: "x", InputTokens: 10, OutputTokens: 10}}
	srv := newTestServer(t, 25.0, client)

	postDispatch(t, srv, `{"text":"Fix a typo in the README"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/budget/reset", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var state models.BudgetState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.WindowUsd != 0 || state.TotalQueries != 0 {
		t.Errorf("window not reset: %+v", state)
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, 25.0, &stubClient{})

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats models.CacheStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("fresh cache has %d entries", stats.Entries)
	}
}

func TestUsageEndpoint(t *testing.T) {
	client := &stubClient{result: &models.InvokeResult{Content: "x", InputTokens: 10, OutputTokens: 10}}
	srv := newTestServer(t, 25.0, client)

	postDispatch(t, srv, `{"text":"Fix a typo in the README"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/usage?limit=10", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var entries []models.UsageLogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one usage row, got %d", len(entries))
	}
	if entries[0].Model != "claude-haiku-4-5" {
		t.Errorf("model = %s", entries[0].Model)
	}
}
