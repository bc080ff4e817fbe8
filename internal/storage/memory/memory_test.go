package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"compras/internal/core"
)

func TestStoreStatsAndRecent(t *testing.T) {
	ctx := context.Background()
	s := New()

	stats, err := s.FeedbackStats(ctx)
	if err != nil || stats.Count != 0 || stats.Mean != 0 {
		t.Fatalf("empty stats = %+v, %v", stats, err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, score := range []int{4, 8, 9} {
		f := core.Feedback{ID: fmt.Sprintf("id-%d", i), Score: score, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.CreateFeedback(ctx, f); err != nil {
			t.Fatalf("CreateFeedback: %v", err)
		}
	}

	stats, _ = s.FeedbackStats(ctx)
	if stats.Count != 3 || stats.Mean != 7 {
		t.Errorf("stats = %+v", stats)
	}

	recent, _ := s.RecentFeedback(ctx, 2)
	if len(recent) != 2 || recent[0].ID != "id-2" || recent[1].ID != "id-1" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestStoreRejects(t *testing.T) {
	ctx := context.Background()
	s := New(core.Feedback{ID: "a", Score: 5})

	if err := s.CreateFeedback(ctx, core.Feedback{ID: "b", Score: 11}); err == nil {
		t.Error("expected score error")
	}
	if err := s.CreateFeedback(ctx, core.Feedback{ID: "a", Score: 6}); err == nil {
		t.Error("expected duplicate id error")
	}
	if stats, _ := s.FeedbackStats(ctx); stats.Count != 1 {
		t.Errorf("count = %d, want 1", stats.Count)
	}
}
