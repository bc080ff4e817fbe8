package backend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"compras/internal/config"
	"compras/internal/core"
	"compras/internal/log"
)

var dsnSeq int64

func testDSN() string {
	return fmt.Sprintf("file:backend_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dsnSeq, 1))
}

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    Config
		wantErr string
	}{
		{
			name: "sqlite",
			cfg:  &config.Config{FeedbackBackend: "sqlite", FeedbackDBPath: "data/feedback.db"},
			want: Config{Type: SQLiteBackend, SQLiteDSN: "data/feedback.db"},
		},
		{
			name: "memory",
			cfg:  &config.Config{FeedbackBackend: "memory"},
			want: Config{Type: MemoryBackend},
		},
		{
			name:    "unknown",
			cfg:     &config.Config{FeedbackBackend: "postgres"},
			wantErr: "invalid feedback backend",
		},
		{
			name:    "nil",
			wantErr: "app config is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("config = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without DSN should fail")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory: %v", err)
	}
	if got := strings.Join(TypeStrings(), ","); got != "sqlite,memory" {
		t.Errorf("TypeStrings = %s", got)
	}
}

func TestFactoryCreate(t *testing.T) {
	factory := NewFactory(log.New(log.Config{Output: io.Discard}))
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: SQLiteBackend, SQLiteDSN: testDSN()},
		{Type: MemoryBackend},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := factory.Create(ctx, cfg)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			defer res.Cleanup()

			f := core.Feedback{ID: "a", Name: "Ana", Score: 8, CreatedAt: time.Now().UTC()}
			if err := res.Store.CreateFeedback(ctx, f); err != nil {
				t.Fatalf("CreateFeedback: %v", err)
			}
			stats, err := res.Store.FeedbackStats(ctx)
			if err != nil || stats.Count != 1 || stats.Mean != 8 {
				t.Errorf("stats = %+v, %v", stats, err)
			}
			recent, err := res.Store.RecentFeedback(ctx, 5)
			if err != nil || len(recent) != 1 || recent[0].ID != "a" {
				t.Errorf("recent = %+v, %v", recent, err)
			}
		})
	}

	if _, err := factory.Create(ctx, Config{Type: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
