// Package ratelimit throttles the dashboard's write endpoints per client.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// idleWindows is how many full windows a client may stay silent before its
// counter is evicted.
const idleWindows = 10

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60}
}

// Limiter is a fixed-window, per-client request counter. It has no
// background goroutine; register it with a cache.Manager so idle clients
// are evicted.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	limited atomic.Int64
}

type window struct {
	start time.Time
	last  time.Time
	count int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is the time left until the client's window restarts.
	Reset time.Duration
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config = DefaultConfig()
	}
	return &Limiter{
		clients: make(map[string]*window),
		limit:   config.RequestsPerMinute,
		period:  time.Minute,
		now:     time.Now,
	}
}

// Allow counts a request from client against its current window.
func (rl *Limiter) Allow(client string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.period {
		w = &window{start: now}
		rl.clients[client] = w
	}
	w.count++
	w.last = now

	d := Decision{
		Allowed:   w.count <= rl.limit,
		Remaining: max(rl.limit-w.count, 0),
		Reset:     w.start.Add(rl.period).Sub(now),
	}
	if !d.Allowed {
		rl.limited.Add(1)
	}
	return d
}

// CleanExpired drops clients idle for idleWindows periods and returns how
// many were removed.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleWindows * rl.period)
	removed := 0
	for client, w := range rl.clients {
		if w.last.Before(cutoff) {
			delete(rl.clients, client)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	LimitedRequests int64
	ClientCount     int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		LimitedRequests: rl.limited.Load(),
		ClientCount:     int64(rl.ActiveClients()),
	}
}

// Middleware limits requests keyed by extractIP. onLimit writes the 429
// response; when nil a plain-text one is sent.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := rl.Allow(extractIP(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Reset.Seconds()))))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
