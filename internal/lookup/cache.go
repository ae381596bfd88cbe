package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crimson-sun/orgtree/internal/model"
)

// Cache stores successful lookup answers.
type Cache interface {
	// Get returns the cached ancestry. ok is false on a miss.
	Get(ctx context.Context, customerID string) (a model.Ancestry, ok bool, err error)
	Set(ctx context.Context, customerID string, a model.Ancestry) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]model.Ancestry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]model.Ancestry)}
}

func (c *MemoryCache) Get(_ context.Context, customerID string) (model.Ancestry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[customerID]
	return a, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, customerID string, a model.Ancestry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[customerID] = a
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "orgtree:ancestry:"

// RedisCache shares lookup answers between runs through Redis. Entries expire
// after ttl; a zero ttl keeps them until evicted.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis parses url, connects and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, customerID string) (model.Ancestry, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+customerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Ancestry{}, false, nil
	}
	if err != nil {
		return model.Ancestry{}, false, fmt.Errorf("redis cache: get %s: %w", customerID, err)
	}
	var a model.Ancestry
	if err := json.Unmarshal(raw, &a); err != nil {
		return model.Ancestry{}, false, fmt.Errorf("redis cache: decode %s: %w", customerID, err)
	}
	return a, true, nil
}

func (c *RedisCache) Set(ctx context.Context, customerID string, a model.Ancestry) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redis cache: encode %s: %w", customerID, err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+customerID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", customerID, err)
	}
	return nil
}
