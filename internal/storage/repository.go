package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compras/internal/core"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a process-local database that disappears on exit.
const DefaultDSN = "file:feedback?mode=memory&cache=shared"

type SQLiteRepository struct {
	db      *sql.DB
	version uint
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if !isURI(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Feedback schema ready", "version", version)

	return &SQLiteRepository{db: db, version: version}, nil
}

func isURI(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

// CreateFeedback stores a submission.
func (r *SQLiteRepository) CreateFeedback(ctx context.Context, f core.Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, name, comment, score, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Comment, f.Score, f.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}

	slog.DebugContext(ctx, "Feedback saved to SQLite", "id", f.ID, "score", f.Score)
	return nil
}

// FeedbackStats returns the number of submissions and their mean score.
func (r *SQLiteRepository) FeedbackStats(ctx context.Context) (core.FeedbackStats, error) {
	var stats core.FeedbackStats
	var mean sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(score) FROM feedback`).Scan(&stats.Count, &mean)
	if err != nil {
		return stats, fmt.Errorf("feedback stats: %w", err)
	}
	if mean.Valid {
		stats.Mean = mean.Float64
	}
	return stats, nil
}

// RecentFeedback returns the latest submissions, newest first.
func (r *SQLiteRepository) RecentFeedback(ctx context.Context, limit int) ([]core.Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, comment, score, created_at FROM feedback ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []core.Feedback
	for rows.Next() {
		var f core.Feedback
		var created time.Time
		if err := rows.Scan(&f.ID, &f.Name, &f.Comment, &f.Score, &created); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		f.CreatedAt = created
		out = append(out, f)
	}
	return out, rows.Err()
}
