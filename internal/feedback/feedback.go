package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"compras/internal/amqp"
	"compras/internal/core"
	"compras/internal/log"
)

const (
	MinScore      = 1
	MaxScore      = 10
	DefaultScore  = 5
	MaxNameLen    = 100
	MaxCommentLen = 2000
	RecentLimit   = 20
)

var (
	ErrInvalidScore   = errors.New("score must be between 1 and 10")
	ErrNameTooLong    = fmt.Errorf("name must be at most %d characters", MaxNameLen)
	ErrCommentTooLong = fmt.Errorf("comment must be at most %d characters", MaxCommentLen)
)

// Store persists feedback entries.
type Store interface {
	CreateFeedback(ctx context.Context, f core.Feedback) error
	FeedbackStats(ctx context.Context) (core.FeedbackStats, error)
	RecentFeedback(ctx context.Context, limit int) ([]core.Feedback, error)
}

// Publisher announces new entries. It is optional.
type Publisher interface {
	PublishFeedback(ctx context.Context, msg *amqp.FeedbackMessage) error
}

// Input is a raw form submission.
type Input struct {
	Name    string
	Comment string
	Score   int
}

// Validate trims the input and checks its bounds.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Comment = strings.TrimSpace(in.Comment)

	var errs []error
	if in.Score < MinScore || in.Score > MaxScore {
		errs = append(errs, ErrInvalidScore)
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLen {
		errs = append(errs, ErrNameTooLong)
	}
	if utf8.RuneCountInString(in.Comment) > MaxCommentLen {
		errs = append(errs, ErrCommentTooLong)
	}
	return errors.Join(errs...)
}

// ThankYou is the confirmation shown after a submission.
func ThankYou(name string, score int) string {
	if name == "" {
		return fmt.Sprintf("¡Gracias! Calificaste el dashboard con un %d/10.", score)
	}
	return fmt.Sprintf("¡Gracias %s! Calificaste el dashboard con un %d/10.", name, score)
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

// NewService creates a service. publisher may be nil.
func NewService(store Store, publisher Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentFeedback),
		now:       time.Now,
	}
}

// Submit validates and stores a submission and returns the confirmation
// message. Notification failures are logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, in Input) (core.Feedback, string, error) {
	if err := in.Validate(); err != nil {
		return core.Feedback{}, "", err
	}

	entry := core.Feedback{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Comment:   in.Comment,
		Score:     in.Score,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateFeedback(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store feedback",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		return core.Feedback{}, "", fmt.Errorf("store feedback: %w", err)
	}

	s.logger.InfoContext(ctx, "Feedback received", "id", entry.ID, log.FieldScore, entry.Score)

	if s.publisher != nil {
		msg := amqp.NewFeedbackMessage(entry.ID, entry.Name, entry.Comment, entry.Score)
		if err := s.publisher.PublishFeedback(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish feedback",
				log.NewFields().WithOperation(log.OpPublish).WithError(err).With("id", entry.ID).ToSlice()...)
		}
	}

	return entry, ThankYou(entry.Name, entry.Score), nil
}

// Stats returns the number of submissions and the mean score.
func (s *Service) Stats(ctx context.Context) (core.FeedbackStats, error) {
	return s.store.FeedbackStats(ctx)
}

// Recent returns up to limit submissions, newest first. limit is capped at RecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]core.Feedback, error) {
	if limit <= 0 || limit > RecentLimit {
		limit = RecentLimit
	}
	return s.store.RecentFeedback(ctx, limit)
}
