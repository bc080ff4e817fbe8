package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compras/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.7" })

	var seenID string
	var seenLogger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = log.FromContext(r.Context())
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if !strings.HasPrefix(seenID, "req_") || rec.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("request id not propagated: %q", seenID)
	}
	if seenLogger == nil || seenLogger.Component() != log.ComponentHTTP {
		t.Fatalf("expected request logger in context")
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=404") || !strings.Contains(out, seenID) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Fatalf("expected one request counted")
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	if GenerateRequestID() == GenerateRequestID() {
		t.Fatalf("request ids must be unique")
	}
}

func TestMetricsCountServerErrors(t *testing.T) {
	m := NewMiddleware(log.New(log.Config{Output: &bytes.Buffer{}}), nil)
	codes := []int{http.StatusOK, http.StatusInternalServerError, http.StatusBadGateway, http.StatusBadRequest}
	for _, code := range codes {
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 || got.ServerErrors != 2 {
		t.Fatalf("metrics = %+v, want 4 total and 2 server errors", got)
	}
	if got.AverageResponseTime < 0 {
		t.Fatalf("average must not be negative: %d", got.AverageResponseTime)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{http.StatusOK, slog.LevelInfo},
		{http.StatusFound, slog.LevelInfo},
		{http.StatusTooManyRequests, slog.LevelWarn},
		{http.StatusServiceUnavailable, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.status); got != tt.want {
			t.Errorf("levelFor(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
