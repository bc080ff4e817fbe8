package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock(rl *Limiter, start time.Time) *time.Time {
	now := start
	rl.now = func() time.Time { return now }
	return &now
}

func TestAllowWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	now := fixedClock(rl, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for i, want := range []bool{true, true, false} {
		if d := rl.Allow("1.2.3.4"); d.Allowed != want {
			t.Fatalf("request %d: allowed=%v, want %v", i+1, d.Allowed, want)
		}
	}
	if d := rl.Allow("5.6.7.8"); !d.Allowed {
		t.Fatalf("other clients must not be limited")
	}

	*now = now.Add(40 * time.Second)
	if d := rl.Allow("1.2.3.4"); d.Allowed || d.Reset != 20*time.Second {
		t.Fatalf("still limited within the window, got %+v", d)
	}

	*now = now.Add(20 * time.Second)
	if d := rl.Allow("1.2.3.4"); !d.Allowed || d.Remaining != 1 || d.Reset != time.Minute {
		t.Fatalf("new window should reset the counter, got %+v", d)
	}
	if got := rl.GetMetrics().LimitedRequests; got != 2 {
		t.Fatalf("limited = %d, want 2", got)
	}
}

func TestCleanExpired(t *testing.T) {
	rl := NewLimiter(Config{})
	now := fixedClock(rl, time.Now())

	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	if removed := rl.CleanExpired(); removed != 1 || rl.ActiveClients() != 1 {
		t.Fatalf("expected the idle client to be removed, removed=%d active=%d", removed, rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	now := fixedClock(rl, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feedback", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("first request: %d %v", rec.Code, rec.Header())
	}

	*now = now.Add(15500 * time.Millisecond)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feedback", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "45" {
		t.Fatalf("second request: %d %v", rec.Code, rec.Header())
	}
}
