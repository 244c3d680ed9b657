package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	// Packages
	redis "github.com/redis/go-redis/v9"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// RedisCache stores cached responses in a Redis server, so the cache
// survives restarts and is shared between processes. Keys are namespaced
// with a prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ Cache = (*RedisCache)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewRedisCache creates a cache backed by the given Redis client.
// The prefix namespaces all keys and may be empty.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// Ping verifies connectivity with the Redis server
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.prefix, key)
}
