package explorer

import (
	"time"

	"github.com/google/uuid"

	"compras/internal/cache"
)

// Store keeps uploaded specs for a short time so the explorer document can be
// re-rendered with the current filters.
type Store struct {
	specs *cache.LRUCache[Spec]
}

func NewStore(size int, ttl time.Duration) *Store {
	return &Store{specs: cache.NewLRUCache[Spec](size, ttl)}
}

// Put stores spec and returns its id.
func (s *Store) Put(spec Spec) string {
	id := uuid.NewString()
	s.specs.Set(id, spec)
	return id
}

// Get returns the spec stored under id.
func (s *Store) Get(id string) (Spec, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return Spec{}, false
	}
	return s.specs.Get(id)
}

// CleanExpired implements cache.Cleaner.
func (s *Store) CleanExpired() int {
	return s.specs.CleanExpired()
}
