package http

import (
	"context"
	"net/http"
	"time"
)

type requestCounters struct {
	Total              int64 `json:"total"`
	ServerErrors       int64 `json:"server_errors"`
	AvgResponseMicros  int64 `json:"avg_response_us"`
	RateLimited        int64 `json:"rate_limited"`
	RateLimitedClients int64 `json:"rate_limit_clients"`
	Suspicious         int64 `json:"suspicious"`
	InvalidClientIPs   int64 `json:"invalid_client_ips"`
}

func (s *Server) counters() requestCounters {
	tr := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()
	return requestCounters{
		Total:              tr.TotalRequests,
		ServerErrors:       tr.ServerErrors,
		AvgResponseMicros:  tr.AverageResponseTime,
		RateLimited:        rl.LimitedRequests,
		RateLimitedClients: rl.ClientCount,
		Suspicious:         sec.SuspiciousRequests,
		InvalidClientIPs:   sec.InvalidIPAttempts,
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests":  s.counters(),
	})
}

// handleReady reports ready once templates are parsed and the dataset loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})
	fail := func(name, msg string) {
		checks[name] = "failed: " + msg
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if t, err := s.source.Table(ctx); err != nil {
		fail("dataset", err.Error())
	} else {
		checks["dataset"] = map[string]int{"rows": t.Len(), "dropped": t.Dropped}
	}

	if s.feedback != nil {
		if _, err := s.feedback.Stats(ctx); err != nil {
			fail("feedback", err.Error())
		} else {
			checks["feedback"] = "ok"
		}
	}

	writeJSON(w, r, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
