// Package cache provides a redis-backed read cache for rendered case
// studies. The serve path rewrites stored image ids into links on every read;
// caching the rendered form keeps repeat reads off the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio/api/internal/store"
)

// Cache stores rendered case studies in Redis under a key prefix with a TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a redis-backed cache.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		prefix: "casestudy:",
		ttl:    ttl,
	}, nil
}

// NewWithClient creates a cache from an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: "casestudy:",
		ttl:    ttl,
	}
}

func (c *Cache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// Get returns the cached rendered case study, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, id int64) (store.CaseStudy, bool, error) {
	jsonData, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return store.CaseStudy{}, false, nil
	}
	if err != nil {
		return store.CaseStudy{}, false, fmt.Errorf("cache get: %w", err)
	}

	var item store.CaseStudy
	if err := json.Unmarshal([]byte(jsonData), &item); err != nil {
		return store.CaseStudy{}, false, fmt.Errorf("unmarshal cached case study: %w", err)
	}
	return item, true, nil
}

// Set stores a rendered case study with the configured TTL.
func (c *Cache) Set(ctx context.Context, item store.CaseStudy) error {
	jsonData, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal case study: %w", err)
	}
	if err := c.client.Set(ctx, c.key(item.ID), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached copy after an update or delete.
func (c *Cache) Invalidate(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
