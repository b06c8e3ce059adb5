package worker_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"stoa/internal/queue"
	"stoa/internal/worker"
)

// MockRecorder collects Record calls keyed by (user, book, day).
type MockRecorder struct {
	mu      sync.Mutex
	totals  map[string]int
	lastDay time.Time
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{totals: make(map[string]int)}
}

func (m *MockRecorder) Record(ctx context.Context, userID, bookID string, day time.Time, pagesRead int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[userID+"/"+bookID+"/"+day.Format("2006-01-02")] += pagesRead
	m.lastDay = day
	return nil
}

func (m *MockRecorder) Total(userID, bookID, day string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[userID+"/"+bookID+"/"+day]
}

func TestHandlePagesRead(t *testing.T) {
	ctx := context.Background()
	recorder := NewMockRecorder()
	handler := worker.NewHandler(recorder)

	// 2024-06-15 13:45 UTC
	ts := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC).Unix()

	err := handler.HandleEvent(ctx, queue.ActivityEvent{
		Type:      queue.EventPagesRead,
		Timestamp: ts,
		UserID:    "user-1",
		BookID:    "book-1",
		PagesRead: 12,
	})
	if err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	// The delta lands in the UTC day bucket of the event timestamp.
	if got := recorder.Total("user-1", "book-1", "2024-06-15"); got != 12 {
		t.Errorf("recorded pages = %d, want 12", got)
	}
	if h, m, s := recorder.lastDay.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("day bucket not truncated: %v", recorder.lastDay)
	}
}

func TestHandlePagesRead_Accumulates(t *testing.T) {
	ctx := context.Background()
	recorder := NewMockRecorder()
	handler := worker.NewHandler(recorder)

	ts := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC).Unix()
	for _, pages := range []int{5, 7, 3} {
		err := handler.HandleEvent(ctx, queue.ActivityEvent{
			Type:      queue.EventPagesRead,
			Timestamp: ts,
			UserID:    "user-1",
			BookID:    "book-1",
			PagesRead: pages,
		})
		if err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
	}

	if got := recorder.Total("user-1", "book-1", "2024-06-15"); got != 15 {
		t.Errorf("accumulated pages = %d, want 15", got)
	}
}

func TestHandlePagesRead_DropsNonPositive(t *testing.T) {
	ctx := context.Background()
	recorder := NewMockRecorder()
	handler := worker.NewHandler(recorder)

	for _, pages := range []int{0, -10} {
		err := handler.HandleEvent(ctx, queue.ActivityEvent{
			Type:      queue.EventPagesRead,
			Timestamp: time.Now().Unix(),
			UserID:    "user-1",
			BookID:    "book-1",
			PagesRead: pages,
		})
		if err != nil {
			t.Fatalf("HandleEvent(%d) failed: %v", pages, err)
		}
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.totals) != 0 {
		t.Errorf("non-positive deltas were recorded: %v", recorder.totals)
	}
}

func TestHandleUnknownEvent(t *testing.T) {
	handler := worker.NewHandler(NewMockRecorder())
	err := handler.HandleEvent(context.Background(), queue.ActivityEvent{Type: "bogus"})
	if err == nil {
		t.Error("expected error for unknown event type")
	}
}

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}
	opts.DB = 1

	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	client.FlushDB(ctx)
	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx := context.Background()
	client.FlushDB(ctx)
	client.Close()
}

// TestStreamToWorkerIntegration tests the complete flow:
// Publisher -> Stream -> Consumer -> Handler -> Recorder
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()

	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	recorder := NewMockRecorder()
	handler := worker.NewHandler(recorder)

	if err := consumer.EnsureGroup(ctx, queue.StreamActivity, queue.ConsumerGroupActivity); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}

	event := queue.NewPagesReadEvent("user-1", "book-1", 8)
	if _, err := publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	messages, err := consumer.Read(ctx, queue.StreamActivity, queue.ConsumerGroupActivity, "test-worker", 10, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.Event.UserID != "user-1" || msg.Event.PagesRead != 8 {
		t.Fatalf("round-tripped event = %+v", msg.Event)
	}

	if err := handler.HandleEvent(ctx, msg.Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if err := consumer.Ack(ctx, queue.StreamActivity, queue.ConsumerGroupActivity, msg.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	day := time.Unix(event.Timestamp, 0).UTC().Format("2006-01-02")
	if got := recorder.Total("user-1", "book-1", day); got != 8 {
		t.Errorf("recorded pages = %d, want 8", got)
	}

	pending, _ := consumer.Pending(ctx, queue.StreamActivity, queue.ConsumerGroupActivity)
	if pending != 0 {
		t.Errorf("Expected 0 pending messages, got %d", pending)
	}
}
