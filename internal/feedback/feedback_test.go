package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"compras/internal/amqp"
	"compras/internal/core"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []core.Feedback
	err     error
}

func (m *memoryStore) CreateFeedback(_ context.Context, f core.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, f)
	return nil
}

func (m *memoryStore) FeedbackStats(context.Context) (core.FeedbackStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := core.FeedbackStats{Count: len(m.entries)}
	for _, e := range m.entries {
		stats.Mean += float64(e.Score)
	}
	if stats.Count > 0 {
		stats.Mean /= float64(stats.Count)
	}
	return stats, nil
}

func (m *memoryStore) RecentFeedback(_ context.Context, limit int) ([]core.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Feedback
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

type recordingPublisher struct {
	msgs []*amqp.FeedbackMessage
	err  error
}

func (p *recordingPublisher) PublishFeedback(_ context.Context, msg *amqp.FeedbackMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  error
	}{
		{"ok", Input{Name: " Ana ", Score: 5}, nil},
		{"empty name", Input{Score: 1}, nil},
		{"score low", Input{Name: "Ana", Score: 0}, ErrInvalidScore},
		{"score high", Input{Name: "Ana", Score: 11}, ErrInvalidScore},
		{"long name", Input{Name: strings.Repeat("ñ", MaxNameLen+1), Score: 5}, ErrNameTooLong},
		{"long comment", Input{Comment: strings.Repeat("a", MaxCommentLen+1), Score: 5}, ErrCommentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			err := in.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	in := Input{Name: strings.Repeat("ñ", MaxNameLen), Score: 5}
	if err := in.Validate(); err != nil {
		t.Fatalf("name length is counted in characters: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	store := &memoryStore{}
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	entry, msg, err := svc.Submit(context.Background(), Input{Name: "  Ana ", Comment: "Muy útil", Score: 9})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if msg != "¡Gracias Ana! Calificaste el dashboard con un 9/10." {
		t.Fatalf("unexpected message %q", msg)
	}
	if entry.ID == "" || entry.Name != "Ana" || !entry.CreatedAt.Equal(svc.now()) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if len(store.entries) != 1 || len(pub.msgs) != 1 || pub.msgs[0].ID != entry.ID {
		t.Fatalf("expected entry stored and published")
	}

	stats, err := svc.Stats(context.Background())
	if err != nil || stats.Count != 1 || stats.Mean != 9 {
		t.Fatalf("unexpected stats %+v, %v", stats, err)
	}
}

func TestRecentIsCapped(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, nil, nil)
	for i := 0; i < RecentLimit+5; i++ {
		if _, _, err := svc.Submit(context.Background(), Input{Score: 1 + i%10}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := svc.Recent(context.Background(), 0)
	if err != nil || len(recent) != RecentLimit {
		t.Fatalf("Recent(0) = %d entries, %v", len(recent), err)
	}
	recent, _ = svc.Recent(context.Background(), 3)
	if len(recent) != 3 || recent[0].ID != store.entries[len(store.entries)-1].ID {
		t.Fatalf("Recent(3) = %+v", recent)
	}
}

func TestSubmitInvalidIsNotStored(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, nil, nil)
	if _, _, err := svc.Submit(context.Background(), Input{Score: 42}); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("invalid feedback must not be stored")
	}
}

func TestSubmitPublishFailureIsIgnored(t *testing.T) {
	svc := NewService(&memoryStore{}, &recordingPublisher{err: errors.New("broker down")}, nil)
	if _, _, err := svc.Submit(context.Background(), Input{Name: "Ana", Score: 3}); err != nil {
		t.Fatalf("publish failures must not fail the submission: %v", err)
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&memoryStore{err: boom}, nil, nil)
	if _, _, err := svc.Submit(context.Background(), Input{Score: 3}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestThankYou(t *testing.T) {
	if got := ThankYou("", 5); got != "¡Gracias! Calificaste el dashboard con un 5/10." {
		t.Fatalf("unexpected anonymous message %q", got)
	}
}
