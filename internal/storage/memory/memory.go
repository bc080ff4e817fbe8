package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"compras/internal/core"
)

// Store keeps feedback in process memory. Entries are lost on exit.
type Store struct {
	mu    sync.Mutex
	items []core.Feedback
	ids   map[string]struct{}
}

func New(seed ...core.Feedback) *Store {
	s := &Store{ids: map[string]struct{}{}}
	for _, f := range seed {
		_ = s.CreateFeedback(context.Background(), f)
	}
	return s
}

// CreateFeedback stores the entry. Scores outside 1..10 and repeated ids are
// rejected, matching the SQLite schema constraints.
func (s *Store) CreateFeedback(_ context.Context, f core.Feedback) error {
	if f.Score < 1 || f.Score > 10 {
		return fmt.Errorf("create feedback: score %d out of range", f.Score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[f.ID]; ok {
		return fmt.Errorf("create feedback: duplicate id %q", f.ID)
	}
	s.ids[f.ID] = struct{}{}
	s.items = append(s.items, f)
	return nil
}

func (s *Store) FeedbackStats(_ context.Context) (core.FeedbackStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := core.FeedbackStats{Count: len(s.items)}
	if stats.Count == 0 {
		return stats, nil
	}
	sum := 0
	for _, f := range s.items {
		sum += f.Score
	}
	stats.Mean = float64(sum) / float64(stats.Count)
	return stats, nil
}

// RecentFeedback returns up to limit entries, newest first.
func (s *Store) RecentFeedback(_ context.Context, limit int) ([]core.Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	out := append([]core.Feedback(nil), s.items...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
