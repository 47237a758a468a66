// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisClient dials Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Redis is a Redis-backed implementation of Cache. Values are stored as JSON
// under namespace-prefixed keys and expire server-side. It has no entry
// bound of its own; callers that need one evict with Delete.
type Redis[V any] struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    zerolog.Logger
	stats     struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedis wraps client. The caller owns the client lifecycle.
func NewRedis[V any](client *redis.Client, namespace string, ttl time.Duration, logger zerolog.Logger) *Redis[V] {
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &Redis[V]{client: client, namespace: namespace, ttl: ttl, logger: logger}
}

func (c *Redis[V]) key(k string) string { return c.namespace + k }

// Get retrieves and decodes a value.
func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return zero, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		c.stats.misses.Add(1)
		return zero, false
	}

	var result V
	if err := json.Unmarshal(val, &result); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("json unmarshal failed")
		c.stats.misses.Add(1)
		return zero, false
	}
	c.stats.hits.Add(1)
	return result, true
}

// Set stores a value with the cache TTL.
func (c *Redis[V]) Set(ctx context.Context, key string, value V) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

// Delete removes a value.
func (c *Redis[V]) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Keys scans the namespace and returns keys without the prefix.
func (c *Redis[V]) Keys(ctx context.Context) ([]string, error) {
	var out []string
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 256).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), c.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

// Stats returns cache statistics. CurrentSize counts keys in the namespace.
func (c *Redis[V]) Stats() CacheStats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	keys, err := c.Keys(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis size scan failed")
	}
	return CacheStats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Sets:        c.stats.sets.Load(),
		CurrentSize: len(keys),
	}
}

// HealthCheck checks if Redis is available.
func (c *Redis[V]) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
