package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"compras/internal/amqp"
	"compras/internal/feedback"
	"compras/internal/log"
)

func newWorker(buf *bytes.Buffer) *FeedbackWorker {
	return NewFeedbackWorker(log.New(log.Config{Output: buf}))
}

func TestHandleFeedbackTallies(t *testing.T) {
	var buf bytes.Buffer
	w := newWorker(&buf)
	ctx := context.Background()

	msgs := []*amqp.FeedbackMessage{
		amqp.NewFeedbackMessage("a", "Ana", "Muy útil", 9),
		amqp.NewFeedbackMessage("b", "Anónimo", "", 3),
		amqp.NewFeedbackMessage("c", "Luis", "", 6),
	}
	for _, m := range msgs {
		if err := w.HandleFeedback(ctx, m); err != nil {
			t.Fatalf("HandleFeedback(%s): %v", m.ID, err)
		}
	}

	d := w.Digest()
	if d.Stats.Count != 3 || d.Stats.Mean != 6 {
		t.Errorf("stats = %+v, want count 3 mean 6", d.Stats)
	}
	if d.Low != 1 {
		t.Errorf("low = %d, want 1", d.Low)
	}
	if !d.LastSeen.Equal(msgs[2].Timestamp) {
		t.Errorf("last seen = %v", d.LastSeen)
	}
	if !strings.Contains(buf.String(), "Muy útil") {
		t.Errorf("comment not logged: %s", buf.String())
	}
}

func TestHandleFeedbackIgnoresRedelivery(t *testing.T) {
	w := newWorker(&bytes.Buffer{})
	msg := amqp.NewFeedbackMessage("dup", "Ana", "", 8)
	for i := 0; i < 3; i++ {
		if err := w.HandleFeedback(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}
	if got := w.Digest().Stats.Count; got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestHandleFeedbackRejectsScore(t *testing.T) {
	w := newWorker(&bytes.Buffer{})
	for _, score := range []int{0, 11} {
		err := w.HandleFeedback(context.Background(), amqp.NewFeedbackMessage("x", "Ana", "", score))
		if !errors.Is(err, feedback.ErrInvalidScore) || !errors.Is(err, amqp.ErrDiscard) {
			t.Errorf("score %d: err = %v, want discarded ErrInvalidScore", score, err)
		}
	}
	if got := w.Digest().Stats.Count; got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestLogDigest(t *testing.T) {
	var buf bytes.Buffer
	w := newWorker(&buf)

	w.LogDigest(context.Background())
	if buf.Len() != 0 {
		t.Fatalf("empty digest logged: %s", buf.String())
	}

	_ = w.HandleFeedback(context.Background(), amqp.NewFeedbackMessage("a", "Ana", "", 7))
	buf.Reset()
	w.LogDigest(context.Background())
	if !strings.Contains(buf.String(), "Feedback digest") || !strings.Contains(buf.String(), "count=1") {
		t.Errorf("digest = %s", buf.String())
	}
}

func TestRunStopsWithContext(t *testing.T) {
	w := newWorker(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
