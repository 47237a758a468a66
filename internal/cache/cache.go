// SPDX-License-Identifier: MIT

// Package cache provides bounded caches with per-entry TTL: an in-memory LRU
// and a Redis-backed variant sharing one interface.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Cache provides thread-safe caching with expiration support.
type Cache[V any] interface {
	// Get retrieves a value. Expired entries are reported as missing.
	Get(ctx context.Context, key string) (V, bool)
	// Set stores a value under key with the cache's TTL.
	Set(ctx context.Context, key string, value V) error
	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string)
	// Keys lists live keys. Order is unspecified.
	Keys(ctx context.Context) ([]string, error)
	// Stats returns cache statistics.
	Stats() CacheStats
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Entries removed by TTL or capacity
	CurrentSize int   // Current number of cached entries
}

// EvictionReason says why an entry left the cache.
type EvictionReason string

const (
	EvictExpired  EvictionReason = "expired"
	EvictCapacity EvictionReason = "capacity"
	EvictReplaced EvictionReason = "replaced"
	EvictDeleted  EvictionReason = "deleted"
)

// Options configures a memory cache.
type Options[V any] struct {
	// TTL is the lifetime of each entry from its last Set. Zero means no expiry.
	TTL time.Duration
	// MaxEntries bounds the cache; the least recently used entry is dropped first.
	// Zero means unbounded.
	MaxEntries int
	// CleanupInterval controls the janitor sweeping expired entries. Zero disables it.
	CleanupInterval time.Duration
	// OnEvict is invoked outside the cache lock for every entry that leaves.
	OnEvict func(key string, value V, reason EvictionReason)
	// Now overrides the clock in tests.
	Now func() time.Time
}

type entry[V any] struct {
	key        string
	value      V
	expiration time.Time
}

func (e *entry[V]) isExpired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

type eviction[V any] struct {
	key    string
	value  V
	reason EvictionReason
}

// Memory is an in-memory TTL + LRU implementation of Cache.
type Memory[V any] struct {
	mu      sync.Mutex
	opts    Options[V]
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	janitor *janitor

	hits, misses, sets, evictions atomic.Int64
}

// NewMemory creates a new in-memory cache. Call Stop to release the janitor.
func NewMemory[V any](opts Options[V]) *Memory[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Memory[V]{
		opts:    opts,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	if opts.CleanupInterval > 0 {
		c.janitor = &janitor{
			interval: opts.CleanupInterval,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go c.janitor.run(c.deleteExpired)
	}
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	c.mu.Lock()
	el, found := c.entries[key]
	if !found {
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}
	e := el.Value.(*entry[V])
	if e.isExpired(c.opts.Now()) {
		c.removeElement(el)
		c.mu.Unlock()
		c.misses.Add(1)
		c.notify([]eviction[V]{{key: key, value: e.value, reason: EvictExpired}})
		return zero, false
	}
	c.order.MoveToFront(el)
	c.mu.Unlock()
	c.hits.Add(1)
	return e.value, true
}

// Set stores a value, evicting least recently used entries beyond MaxEntries.
func (c *Memory[V]) Set(_ context.Context, key string, value V) error {
	var expiration time.Time
	if c.opts.TTL > 0 {
		expiration = c.opts.Now().Add(c.opts.TTL)
	}

	var evicted []eviction[V]
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[V])
		evicted = append(evicted, eviction[V]{key: key, value: e.value, reason: EvictReplaced})
		e.value = value
		e.expiration = expiration
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiration: expiration})
	}
	for c.opts.MaxEntries > 0 && c.order.Len() > c.opts.MaxEntries {
		oldest := c.order.Back()
		e := oldest.Value.(*entry[V])
		c.removeElement(oldest)
		evicted = append(evicted, eviction[V]{key: e.key, value: e.value, reason: EvictCapacity})
	}
	c.mu.Unlock()

	c.sets.Add(1)
	c.notify(evicted)
	return nil
}

// Delete removes a value from the cache.
func (c *Memory[V]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	el, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e := el.Value.(*entry[V])
	c.removeElement(el)
	c.mu.Unlock()
	c.notify([]eviction[V]{{key: key, value: e.value, reason: EvictDeleted}})
}

// Keys lists unexpired keys, most recently used first.
func (c *Memory[V]) Keys(_ context.Context) ([]string, error) {
	now := c.opts.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[V])
		if !e.isExpired(now) {
			out = append(out, e.key)
		}
	}
	return out, nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *Memory[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *Memory[V]) Stats() CacheStats {
	return CacheStats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: c.Len(),
	}
}

// Stop stops the background cleanup goroutine and waits for it to exit.
func (c *Memory[V]) Stop() {
	if c.janitor != nil {
		c.janitor.shutdown()
	}
}

// removeElement unlinks el. Caller holds c.mu.
func (c *Memory[V]) removeElement(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.entries, e.key)
	c.order.Remove(el)
}

func (c *Memory[V]) notify(evicted []eviction[V]) {
	for _, ev := range evicted {
		if ev.reason == EvictExpired || ev.reason == EvictCapacity {
			c.evictions.Add(1)
		}
		if c.opts.OnEvict != nil {
			c.opts.OnEvict(ev.key, ev.value, ev.reason)
		}
	}
}

// deleteExpired removes all expired entries and returns how many were removed.
func (c *Memory[V]) deleteExpired() int {
	now := c.opts.Now()
	var evicted []eviction[V]
	c.mu.Lock()
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry[V])
		if e.isExpired(now) {
			c.removeElement(el)
			evicted = append(evicted, eviction[V]{key: e.key, value: e.value, reason: EvictExpired})
		}
		el = prev
	}
	c.mu.Unlock()
	c.notify(evicted)
	return len(evicted)
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (j *janitor) run(sweep func() int) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep()
		case <-j.stop:
			return
		}
	}
}

func (j *janitor) shutdown() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
}
