package ports

import (
	"context"

	"compras/internal/core"
	"compras/internal/feedback"
)

// Ports used by the HTTP layer.
type (
	// TableSource returns the full procurement table. Implementations memoize
	// the load; callers must treat the table as read-only.
	TableSource interface {
		Table(ctx context.Context) (*core.Table, error)
	}

	FeedbackService interface {
		// Submit validates and stores a submission and returns the message
		// shown to the user.
		Submit(ctx context.Context, in feedback.Input) (core.Feedback, string, error)
		Stats(ctx context.Context) (core.FeedbackStats, error)
		// Recent returns the latest submissions, newest first.
		Recent(ctx context.Context, limit int) ([]core.Feedback, error)
	}
)
