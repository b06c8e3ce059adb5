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
	// SearchCachePrefix is the key prefix for book search result caches
	SearchCachePrefix = "search:books:"

	// SearchCacheTTL is the TTL for search result caches. Metadata from the
	// external APIs changes rarely; ten minutes keeps repeat queries cheap.
	SearchCacheTTL = 10 * time.Minute
)

// SearchCache caches external book-metadata search results by query string.
type SearchCache interface {
	Get(ctx context.Context, query string) (results []model.BookSearchResult, found bool, err error)
	Set(ctx context.Context, query string, results []model.BookSearchResult) error
}

type RedisSearchCache struct {
	client *redis.Client
}

func NewSearchCache(client *redis.Client) SearchCache {
	return &RedisSearchCache{client: client}
}

func searchKey(query string) string {
	return SearchCachePrefix + query
}

func (c *RedisSearchCache) Get(ctx context.Context, query string) ([]model.BookSearchResult, bool, error) {
	raw, err := c.client.Get(ctx, searchKey(query)).Result()
	if err == redis.Nil {
		log.Printf("[SearchCache] Get: query=%q MISS", query)
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[SearchCache] Get FAILED: query=%q err=%v", query, err)
		return nil, false, fmt.Errorf("get search cache: %w", err)
	}

	var results []model.BookSearchResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		log.Printf("[SearchCache] Get decode FAILED: query=%q err=%v", query, err)
		return nil, false, nil
	}

	log.Printf("[SearchCache] Get HIT: query=%q results=%d", query, len(results))
	return results, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, query string, results []model.BookSearchResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode search cache: %w", err)
	}
	if err := c.client.Set(ctx, searchKey(query), data, SearchCacheTTL).Err(); err != nil {
		log.Printf("[SearchCache] Set FAILED: query=%q err=%v", query, err)
		return fmt.Errorf("set search cache: %w", err)
	}
	log.Printf("[SearchCache] Set OK: query=%q results=%d", query, len(results))
	return nil
}
