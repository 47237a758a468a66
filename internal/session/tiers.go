// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/callvault/internal/cache"
	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metrics"
)

const redisNamespace = "callvault:session:"

// Tiers bundles the two caches built from configuration.
type Tiers struct {
	Raw      cache.Cache[Entry]
	Filtered cache.Cache[FilteredEntry]
	// Redis is set when the tiers live in Redis, for health checks.
	Redis *redis.Client

	stop []func()
}

// Close releases janitors and connections.
func (t *Tiers) Close() error {
	for _, fn := range t.stop {
		fn()
	}
	if t.Redis != nil {
		return t.Redis.Close()
	}
	return nil
}

// NewTiers builds in-memory or Redis-backed tiers per cfg.Backend.
func NewTiers(ctx context.Context, cfg config.SessionConfig) (*Tiers, error) {
	switch cfg.Backend {
	case config.SessionRedis:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("session redis: %w", err)
		}
		logger := log.WithComponent("session.cache")
		return &Tiers{
			Raw:      cache.NewRedis[Entry](client, redisNamespace+TierRaw, cfg.TTL, logger),
			Filtered: cache.NewRedis[FilteredEntry](client, redisNamespace+TierFiltered, cfg.TTL, logger),
			Redis:    client,
		}, nil
	case config.SessionMemory, "":
		// The service bounds the raw tier through its ledger.
		raw := cache.NewMemory(cache.Options[Entry]{})
		filtered := newMemoryTier[FilteredEntry](TierFiltered, cfg)
		return &Tiers{
			Raw:      raw,
			Filtered: filtered,
			stop:     []func(){filtered.Stop},
		}, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func newMemoryTier[V any](tier string, cfg config.SessionConfig) *cache.Memory[V] {
	return cache.NewMemory(cache.Options[V]{
		TTL:             cfg.TTL,
		MaxEntries:      cfg.MaxEntries,
		CleanupInterval: janitorInterval(cfg.TTL),
		OnEvict: func(_ string, _ V, reason cache.EvictionReason) {
			if reason == cache.EvictExpired || reason == cache.EvictCapacity {
				metrics.IncCacheEviction(tier, string(reason))
			}
		},
	})
}

// OptionsFromConfig maps the session section onto service options.
func OptionsFromConfig(cfg config.SessionConfig) Options {
	return Options{
		TTL:                 cfg.TTL,
		MaxEntries:          cfg.MaxEntries,
		MaxRecords:          cfg.MaxRecords,
		AllowGlobalFallback: cfg.AllowGlobalFallback,
	}
}
