package cache

import (
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo memoizes the result of an expensive load per key.
// Concurrent misses for the same key share a single load.
type Memo[T any] struct {
	entries *LRUCache[T]
	group   singleflight.Group
}

// NewMemo creates a memo holding at most maxSize results for ttl each.
func NewMemo[T any](maxSize int, ttl time.Duration) *Memo[T] {
	return &Memo[T]{entries: NewLRUCache[T](maxSize, ttl)}
}

// Get returns the cached value for key, calling load on a miss.
// hit reports whether the value came from the cache. Errors are not cached.
func (m *Memo[T]) Get(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := m.entries.Get(key); ok {
		return v, true, nil
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if v, ok := m.entries.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		m.entries.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

// Forget drops a cached key.
func (m *Memo[T]) Forget(key string) {
	m.entries.Delete(key)
	m.group.Forget(key)
}

// Len returns the number of cached results.
func (m *Memo[T]) Len() int {
	return m.entries.Size()
}

// CleanExpired implements Cleaner.
func (m *Memo[T]) CleanExpired() int {
	return m.entries.CleanExpired()
}
