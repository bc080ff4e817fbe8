package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"compras/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// RequestIDHeader echoes the request ID to clients.
	RequestIDHeader = "X-Request-ID"
)

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests       int64
	ServerErrors        int64
	AverageResponseTime int64 // microseconds
}

// Middleware assigns request IDs, puts a request logger in the context and
// logs every completed request at a level derived from its status.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger

	total        atomic.Int64
	serverErrors atomic.Int64
	micros       atomic.Int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		id := GenerateRequestID()
		reqLogger := m.logger.With(log.FieldRequestID, id)
		ctx := log.NewContext(context.WithValue(r.Context(), RequestIDKey, id), reqLogger)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		reqLogger.DebugContext(ctx, "HTTP request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			"user_agent", r.UserAgent())

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		m.total.Add(1)
		m.micros.Add(elapsed.Microseconds())
		if rw.status >= http.StatusInternalServerError {
			m.serverErrors.Add(1)
		}

		reqLogger.Log(ctx, levelFor(rw.status), "HTTP request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			"query", r.URL.RawQuery,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, elapsed.Milliseconds(),
			log.FieldBytes, rw.bytes,
			log.FieldClientIP, clientIP)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Flush lets streamed responses through the recorder.
func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID returns the request ID stored by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	out := Metrics{TotalRequests: total, ServerErrors: m.serverErrors.Load()}
	if total > 0 {
		out.AverageResponseTime = m.micros.Load() / total
	}
	return out
}
