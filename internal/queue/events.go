package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the activity stream
const (
	EventPagesRead     = "pages_read"
	EventBookCompleted = "book_completed"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent represents an event published to the activity stream.
// Progress updates publish these fire-and-forget; a failed publish never
// fails the progress update itself.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the event occurred

	UserID string `json:"user_id"`
	BookID string `json:"book_id"`

	// PagesRead is the forward delta for pages_read events, always > 0.
	PagesRead int `json:"pages_read,omitempty"`
}

// NewPagesReadEvent creates an event for forward reading progress. The
// worker folds it into the reader's daily activity totals.
func NewPagesReadEvent(userID, bookID string, pagesRead int) ActivityEvent {
	return ActivityEvent{
		Type:      EventPagesRead,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		BookID:    bookID,
		PagesRead: pagesRead,
	}
}

// NewBookCompletedEvent creates an event for a book marked as finished.
func NewBookCompletedEvent(userID, bookID string) ActivityEvent {
	return ActivityEvent{
		Type:      EventBookCompleted,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		BookID:    bookID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
