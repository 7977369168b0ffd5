// Package cache holds the Redis client constructor and a small JSON
// value cache used by the analytics summary endpoints.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// JSONCache stores JSON-encoded values with a fixed TTL. A nil cache is
// valid and behaves as a permanent miss, so callers need no nil checks.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJSONCache wraps a Redis client.
func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, ttl: ttl}
}

// Get loads and decodes a cached value. ok is false on miss or any
// decode failure; cache errors never fail the caller's request.
func (c *JSONCache) Get(ctx context.Context, key string, target any) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

// Set stores a value. Failures are dropped; the cache is best effort.
func (c *JSONCache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}
