// Package ratelimit provides a fixed-window request limiter keyed by an
// arbitrary string (typically a user ID). The Redis implementation shares
// windows across instances; the memory implementation serves tests and
// single-process deployments.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter answers whether one more request is allowed for key right now.
// Implementations count the request as taken when they return true.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter: INCR the window key and EXPIRE it
// when this request opened the window. The two commands ride one pipeline so
// a counter can never be left without a TTL.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RateLimit] Allow FAILED: key=%s err=%v", key, err)
		return false, fmt.Errorf("rate limit check: %w", err)
	}

	count := incr.Val()
	allowed := count <= int64(l.limit)
	if !allowed {
		log.Printf("[RateLimit] Allow DENIED: key=%s count=%d limit=%d", key, count, l.limit)
	}
	return allowed, nil
}

// MemoryLimiter is an in-process fixed-window counter with the same
// semantics as RedisLimiter. now is injectable for tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	size    time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewMemoryLimiter(limit int, size time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= l.size {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}
