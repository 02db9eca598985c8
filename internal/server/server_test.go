package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/estimate"
	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

func init() {
	output.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var serviceEstimate = model.LoadEstimate{
	RecommendedTruck: "Eicher 19ft",
	EstimatedCost:    "₹9,000 - ₹10,500",
	FuelEstimate:     "45 Litres",
	TollEstimate:     "₹850",
	Explanation:      "Based on 350km haul for medium steel load.",
}

type fakeResolver struct {
	mu       sync.Mutex
	fallback bool
	calls    []model.Shipment
}

func (f *fakeResolver) Resolve(ctx context.Context, s model.Shipment) estimate.Result {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()

	if f.fallback {
		return estimate.Result{ID: "est-fallback", Shipment: s, Estimate: estimate.Fallback(), Outcome: model.OutcomeFallback}
	}
	return estimate.Result{ID: "est-1", Shipment: s, Estimate: serviceEstimate, Outcome: model.OutcomeService}
}

func newTestServer(t *testing.T, rateLimit int) (*Server, *fakeResolver) {
	t.Helper()
	cfg := config.DefaultConfig().Server
	cfg.RateLimit = rateLimit
	r := &fakeResolver{}
	s := New(cfg, r)
	t.Cleanup(s.Close)
	return s, r
}

func postEstimate(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 0)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "OK" {
		t.Errorf("body = %q, want OK", w.Body.String())
	}
}

func TestEstimate_OK(t *testing.T) {
	s, r := newTestServer(t, 0)

	w := postEstimate(s.Handler(), "application/json; charset=utf-8",
		`{"material":"Steel Pipes","weight":"5 tons","distanceKm":"350"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(EstimateIDHeader); got != "est-1" {
		t.Errorf("%s = %q, want est-1", EstimateIDHeader, got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got model.LoadEstimate
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != serviceEstimate {
		t.Errorf("response = %+v, want %+v", got, serviceEstimate)
	}

	want := model.Shipment{Material: "Steel Pipes", Weight: "5 tons", DistanceKm: "350"}
	if len(r.calls) != 1 || r.calls[0] != want {
		t.Errorf("resolver calls = %+v, want [%+v]", r.calls, want)
	}
}

func TestEstimate_FallbackLooksLikeSuccess(t *testing.T) {
	s, r := newTestServer(t, 0)
	r.fallback = true

	w := postEstimate(s.Handler(), "application/json", `{"material":"Rice Bags","weight":"10 tons","distanceKm":"800"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got model.LoadEstimate
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != estimate.Fallback() {
		t.Errorf("response = %+v, want fallback", got)
	}
}

func TestEstimate_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"no content type", "", `{"material":"a","weight":"b","distanceKm":"c"}`, http.StatusUnsupportedMediaType},
		{"form content type", "application/x-www-form-urlencoded", `material=a`, http.StatusUnsupportedMediaType},
		{"invalid json", "application/json", `{invalid-json}`, http.StatusBadRequest},
		{"wrong type", "application/json", `{"material":"a","weight":5,"distanceKm":"c"}`, http.StatusBadRequest},
		{"empty material", "application/json", `{"material":"","weight":"5 tons","distanceKm":"350"}`, http.StatusBadRequest},
		{"missing distance", "application/json", `{"material":"Steel","weight":"5 tons"}`, http.StatusBadRequest},
		{"body too large", "application/json", `{"material":"` + strings.Repeat("x", maxBodyBytes) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := newTestServer(t, 0)

			w := postEstimate(s.Handler(), tt.contentType, tt.body)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %q, want JSON error", w.Body.String())
			}
			if len(r.calls) != 0 {
				t.Errorf("resolver called %d times for rejected request", len(r.calls))
			}
		})
	}
}

func TestEstimate_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, 0)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/estimate", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestEstimate_RateLimited(t *testing.T) {
	s, r := newTestServer(t, 2)
	body := `{"material":"Steel Pipes","weight":"5 tons","distanceKm":"350"}`

	for i := 0; i < 2; i++ {
		if w := postEstimate(s.Handler(), "application/json", body); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := postEstimate(s.Handler(), "application/json", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if len(r.calls) != 2 {
		t.Errorf("resolver called %d times, want 2", len(r.calls))
	}

	// Health is not limited.
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health expected 200, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request in window should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("other client should have its own bucket")
	}

	// Tokens return evenly: one every window/capacity.
	now = now.Add(30 * time.Second)
	if !rl.Allow("a") {
		t.Error("one token should be back after half the window")
	}
	if rl.Allow("a") {
		t.Error("only one token should be back after half the window")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") || !rl.Allow("a") {
		t.Error("bucket should refill to capacity after the window")
	}

	now = now.Add(2 * time.Hour)
	rl.cleanup()
	if n := rl.size(); n != 0 {
		t.Errorf("cleanup left %d buckets, want 0", n)
	}

	rl.Stop()
}

func TestRun_Shutdown(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	s := New(cfg, &fakeResolver{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
