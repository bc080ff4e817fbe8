package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"compras/internal/amqp"
	"compras/internal/cache"
	"compras/internal/core"
	"compras/internal/feedback"
	"compras/internal/log"
)

const (
	seenSize = 10000
	seenTTL  = 24 * time.Hour
)

// FeedbackWorker tallies feedback notifications consumed from the broker and
// periodically logs a digest of them.
type FeedbackWorker struct {
	logger *log.Logger
	seen   *cache.LRUCache[struct{}]

	mu       sync.Mutex
	count    int
	sum      int
	low      int
	lastSeen time.Time
}

func NewFeedbackWorker(logger *log.Logger) *FeedbackWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &FeedbackWorker{
		logger: logger.WithComponent(log.ComponentFeedback),
		seen:   cache.NewLRUCache[struct{}](seenSize, seenTTL),
	}
}

// Cache exposes the redelivery filter so it can be registered with a cache.Manager.
func (w *FeedbackWorker) Cache() cache.Cleaner {
	return w.seen
}

// HandleFeedback records one message. Redelivered ids are acknowledged
// without being counted twice; out of range scores are discarded.
func (w *FeedbackWorker) HandleFeedback(ctx context.Context, msg *amqp.FeedbackMessage) error {
	if msg.Score < feedback.MinScore || msg.Score > feedback.MaxScore {
		return fmt.Errorf("feedback %s: %w: %w", msg.ID, amqp.ErrDiscard, feedback.ErrInvalidScore)
	}
	if _, dup := w.seen.Get(msg.ID); dup {
		w.logger.DebugContext(ctx, "Duplicate feedback message", "id", msg.ID)
		return nil
	}
	w.seen.Set(msg.ID, struct{}{})

	w.mu.Lock()
	w.count++
	w.sum += msg.Score
	if msg.Score <= lowScore {
		w.low++
	}
	w.lastSeen = msg.Timestamp
	w.mu.Unlock()

	fields := log.NewFields().WithOperation(log.OpCreate).
		With("id", msg.ID).
		With("score", msg.Score).
		With("name", msg.Name)
	if msg.Comment != "" {
		fields = fields.With("comment", msg.Comment)
	}
	w.logger.InfoContext(ctx, "Feedback received", fields.ToSlice()...)
	return nil
}

// lowScore is the highest score counted as a complaint in the digest.
const lowScore = 4

// Digest summarizes the messages handled so far.
type Digest struct {
	Stats    core.FeedbackStats
	Low      int
	LastSeen time.Time
}

func (w *FeedbackWorker) Digest() Digest {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := Digest{Stats: core.FeedbackStats{Count: w.count}, Low: w.low, LastSeen: w.lastSeen}
	if w.count > 0 {
		d.Stats.Mean = float64(w.sum) / float64(w.count)
	}
	return d
}

// LogDigest writes the current digest; nothing is logged before the first message.
func (w *FeedbackWorker) LogDigest(ctx context.Context) {
	d := w.Digest()
	if d.Stats.Count == 0 {
		return
	}
	w.logger.InfoContext(ctx, "Feedback digest",
		"count", d.Stats.Count,
		"mean", d.Stats.Mean,
		"low_scores", d.Low,
		"last_seen", d.LastSeen)
}

// Run logs a digest every interval until ctx is done.
func (w *FeedbackWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.LogDigest(context.Background())
			return
		case <-ticker.C:
			w.LogDigest(ctx)
		}
	}
}
