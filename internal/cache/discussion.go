package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"stoa/internal/model"
)

const (
	// DiscussionCachePrefix is the key prefix for per-book discussion caches
	DiscussionCachePrefix = "discussions:book:"

	// DiscussionCountPrefix is the key prefix for per-book comment counts
	DiscussionCountPrefix = "discussions:count:"

	// DiscussionCacheTTL is the TTL for discussion caches
	DiscussionCacheTTL = 10 * time.Minute
)

// DiscussionCache is a read-through cache of a book's full comment list.
// Only the unfiltered list is cached; spoiler filtering happens after the
// read, so one cached list serves readers at any page.
type DiscussionCache interface {
	// GetThread returns the cached comment list for a book.
	// found=false means a miss; the service should load from the store and Set.
	GetThread(ctx context.Context, bookID string) (comments []model.Comment, found bool, err error)

	// SetThread caches a book's full comment list with the standard TTL.
	SetThread(ctx context.Context, bookID string, comments []model.Comment) error

	// GetCount returns the cached total comment count for a book.
	GetCount(ctx context.Context, bookID string) (count int, found bool, err error)

	// SetCount caches a book's total comment count.
	SetCount(ctx context.Context, bookID string, count int) error

	// Invalidate drops both the list and the count for a book. Called after
	// every comment write so readers never see a stale thread for long.
	Invalidate(ctx context.Context, bookID string) error
}

// RedisDiscussionCache implements DiscussionCache on Redis string keys
// holding JSON-encoded comment lists.
type RedisDiscussionCache struct {
	client *redis.Client
}

func NewDiscussionCache(client *redis.Client) DiscussionCache {
	return &RedisDiscussionCache{client: client}
}

func threadKey(bookID string) string {
	return DiscussionCachePrefix + bookID
}

func countKey(bookID string) string {
	return DiscussionCountPrefix + bookID
}

func (c *RedisDiscussionCache) GetThread(ctx context.Context, bookID string) ([]model.Comment, bool, error) {
	raw, err := c.client.Get(ctx, threadKey(bookID)).Result()
	if err == redis.Nil {
		log.Printf("[DiscussionCache] GetThread: book=%s MISS", bookID)
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[DiscussionCache] GetThread FAILED: book=%s err=%v", bookID, err)
		return nil, false, fmt.Errorf("get thread cache: %w", err)
	}

	var comments []model.Comment
	if err := json.Unmarshal([]byte(raw), &comments); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		log.Printf("[DiscussionCache] GetThread decode FAILED: book=%s err=%v", bookID, err)
		return nil, false, nil
	}

	log.Printf("[DiscussionCache] GetThread HIT: book=%s comments=%d", bookID, len(comments))
	return comments, true, nil
}

func (c *RedisDiscussionCache) SetThread(ctx context.Context, bookID string, comments []model.Comment) error {
	startTime := time.Now()

	data, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("encode thread cache: %w", err)
	}
	if err := c.client.Set(ctx, threadKey(bookID), data, DiscussionCacheTTL).Err(); err != nil {
		log.Printf("[DiscussionCache] SetThread FAILED: book=%s err=%v", bookID, err)
		return fmt.Errorf("set thread cache: %w", err)
	}

	log.Printf("[DiscussionCache] SetThread OK: book=%s comments=%d duration=%v",
		bookID, len(comments), time.Since(startTime))
	return nil
}

func (c *RedisDiscussionCache) GetCount(ctx context.Context, bookID string) (int, bool, error) {
	count, err := c.client.Get(ctx, countKey(bookID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		log.Printf("[DiscussionCache] GetCount FAILED: book=%s err=%v", bookID, err)
		return 0, false, fmt.Errorf("get count cache: %w", err)
	}
	return count, true, nil
}

func (c *RedisDiscussionCache) SetCount(ctx context.Context, bookID string, count int) error {
	if err := c.client.Set(ctx, countKey(bookID), count, DiscussionCacheTTL).Err(); err != nil {
		log.Printf("[DiscussionCache] SetCount FAILED: book=%s err=%v", bookID, err)
		return fmt.Errorf("set count cache: %w", err)
	}
	return nil
}

func (c *RedisDiscussionCache) Invalidate(ctx context.Context, bookID string) error {
	deleted, err := c.client.Del(ctx, threadKey(bookID), countKey(bookID)).Result()
	if err != nil {
		log.Printf("[DiscussionCache] Invalidate FAILED: book=%s err=%v", bookID, err)
		return fmt.Errorf("invalidate thread cache: %w", err)
	}
	log.Printf("[DiscussionCache] Invalidate OK: book=%s keys=%d", bookID, deleted)
	return nil
}
