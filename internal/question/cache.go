package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "questionset:"

// Cache keeps assembled question sets in Redis so every session start does
// not hit PostgreSQL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a question set cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached set for a passcode, if present.
func (c *Cache) Get(ctx context.Context, passcode string) (Set, bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+passcode).Bytes()
	if errors.Is(err, redis.Nil) {
		return Set{}, false, nil
	}
	if err != nil {
		return Set{}, false, fmt.Errorf("cache get: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return set, true, nil
}

// Put stores a set under its passcode.
func (c *Cache) Put(ctx context.Context, passcode string, set Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+passcode, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached set after an authoring change.
func (c *Cache) Invalidate(ctx context.Context, passcode string) error {
	if err := c.client.Del(ctx, cacheKeyPrefix+passcode).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
