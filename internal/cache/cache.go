// Package cache holds the in-process caches: a TTL-aware LRU, a memo that
// loads each key once, and a Manager that evicts expired entries.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the keyed store implemented by LRUCache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner drops expired entries and reports how many it removed.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs CleanExpired on every registered Cleaner, either on demand or
// from a ticker started by StartCleanup. Cleaners may be registered at any
// time, including after the loop started.
type Manager struct {
	mu       sync.Mutex
	cleaners []namedCleaner

	stop     chan struct{}
	done     chan struct{}
	start    sync.Once
	stopOnce sync.Once
	running  bool
}

type namedCleaner struct {
	name string
	c    Cleaner
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaners = append(m.cleaners, namedCleaner{name: name, c: c})
}

// Names lists the registered caches in registration order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.cleaners))
	for i, nc := range m.cleaners {
		names[i] = nc.name
	}
	return names
}

// StartCleanup starts the eviction loop. Later calls are no-ops.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.start.Do(func() {
		m.mu.Lock()
		m.running = true
		m.mu.Unlock()
		go m.loop(interval)
	})
}

func (m *Manager) loop(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanNow()
		case <-m.stop:
			return
		}
	}
}

// CleanNow runs one eviction pass and returns the number of entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	cleaners := append([]namedCleaner(nil), m.cleaners...)
	m.mu.Unlock()

	total := 0
	for _, nc := range cleaners {
		if n := nc.c.CleanExpired(); n > 0 {
			slog.Debug("Cache cleanup completed", "cache", nc.name, "entries_removed", n)
			total += n
		}
	}
	return total
}

// Stop ends the eviction loop and waits for it. Safe to call more than once
// and on a manager that never started.
func (m *Manager) Stop() {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}
