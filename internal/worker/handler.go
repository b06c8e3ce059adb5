package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"stoa/internal/queue"
)

// ActivityRecorder abstracts the activity repository so workers don't
// depend on the DB layer directly.
type ActivityRecorder interface {
	// Record adds pagesRead to the (user, book, day) bucket.
	Record(ctx context.Context, userID, bookID string, day time.Time, pagesRead int) error
}

// CompletionNotifier is an optional hook for book-completed events.
type CompletionNotifier interface {
	BookCompleted(ctx context.Context, userID, bookID string) error
}

// Handler processes activity events from the queue.
type Handler struct {
	recorder ActivityRecorder
	notifier CompletionNotifier // can be nil if completions are not wired
}

// NewHandler creates a new event handler.
func NewHandler(recorder ActivityRecorder) *Handler {
	return &Handler{recorder: recorder}
}

// SetCompletionNotifier sets the optional completion hook.
func (h *Handler) SetCompletionNotifier(n CompletionNotifier) {
	h.notifier = n
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPagesRead:
		err = h.handlePagesRead(ctx, event)
	case queue.EventBookCompleted:
		err = h.handleBookCompleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePagesRead folds a forward-progress delta into the reader's daily
// totals. The day bucket is the event's timestamp truncated to a UTC day,
// so late-processed events still land on the day the reading happened.
func (h *Handler) handlePagesRead(ctx context.Context, event queue.ActivityEvent) error {
	if event.PagesRead <= 0 {
		// Backward or zero movement should never have been published.
		log.Printf("[Worker] PagesRead: dropping non-positive delta user=%s book=%s pages=%d",
			event.UserID, event.BookID, event.PagesRead)
		return nil
	}

	day := time.Unix(event.Timestamp, 0).UTC().Truncate(24 * time.Hour)

	if err := h.recorder.Record(ctx, event.UserID, event.BookID, day, event.PagesRead); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	log.Printf("[Worker] PagesRead DONE: user=%s book=%s day=%s pages=%d",
		event.UserID, event.BookID, day.Format("2006-01-02"), event.PagesRead)
	return nil
}

func (h *Handler) handleBookCompleted(ctx context.Context, event queue.ActivityEvent) error {
	if h.notifier == nil {
		log.Printf("[Worker] BookCompleted: no notifier wired, skipping")
		return nil
	}
	if err := h.notifier.BookCompleted(ctx, event.UserID, event.BookID); err != nil {
		return fmt.Errorf("book completed hook: %w", err)
	}
	return nil
}
