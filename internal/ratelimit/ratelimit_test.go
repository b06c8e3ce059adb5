package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	// Fourth request inside the same window is denied.
	allowed, _ := l.Allow(ctx, "user-1")
	if allowed {
		t.Error("request over the limit was allowed")
	}

	// A different key has its own window.
	allowed, _ = l.Allow(ctx, "user-2")
	if !allowed {
		t.Error("unrelated key was denied")
	}

	// The window rolls over and the counter resets.
	now = now.Add(time.Minute)
	allowed, _ = l.Allow(ctx, "user-1")
	if !allowed {
		t.Error("request denied after window rollover")
	}
}

func TestMemoryLimiter_WindowBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	l.Allow(ctx, "k")

	// One nanosecond before rollover is still the old window.
	now = now.Add(time.Minute - time.Nanosecond)
	if allowed, _ := l.Allow(ctx, "k"); allowed {
		t.Error("allowed just before window end")
	}

	now = now.Add(time.Nanosecond)
	if allowed, _ := l.Allow(ctx, "k"); !allowed {
		t.Error("denied at window start")
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

func TestRedisLimiter_FixedWindow(t *testing.T) {
	client := setupTestRedis(t)
	defer func() {
		client.FlushDB(context.Background())
		client.Close()
	}()

	ctx := context.Background()
	l := NewRedisLimiter(client, "test:ratelimit", 2, time.Minute)

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	allowed, err := l.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("request over the limit was allowed")
	}

	// The counter key must carry a TTL, otherwise the window never closes.
	ttl, err := client.TTL(ctx, "test:ratelimit:user-1").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("counter TTL = %v, want > 0", ttl)
	}

	allowed, _ = l.Allow(ctx, "user-2")
	if !allowed {
		t.Error("unrelated key was denied")
	}
}
