// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     string              `json:"id"`
	Fields []map[string]string `json:"fields"`
}

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_SetGetTyped(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniRedis(t)
	c := NewRedis[sample](client, "callvault:raw", time.Minute, zerolog.Nop())

	in := sample{ID: "s1", Fields: []map[string]string{{"extensionNum": "100"}}}
	require.NoError(t, c.Set(ctx, "s1", in))

	got, ok := c.Get(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, in, got)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedis_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniRedis(t)
	c := NewRedis[string](client, "ns", time.Minute, zerolog.Nop())

	require.NoError(t, c.Set(ctx, "k", "v"))
	assert.Equal(t, time.Minute, mr.TTL("ns:k"))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedis_KeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniRedis(t)
	raw := NewRedis[string](client, "raw", time.Minute, zerolog.Nop())
	filtered := NewRedis[string](client, "filtered", time.Minute, zerolog.Nop())

	require.NoError(t, raw.Set(ctx, "a", "1"))
	require.NoError(t, raw.Set(ctx, "b", "2"))
	require.NoError(t, filtered.Set(ctx, "c", "3"))

	keys, err := raw.Keys(ctx)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)

	raw.Delete(ctx, "a")
	keys, err = raw.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestRedis_CorruptValueIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniRedis(t)
	c := NewRedis[sample](client, "ns", time.Minute, zerolog.Nop())

	require.NoError(t, mr.Set("ns:bad", "{not json"))
	_, ok := c.Get(ctx, "bad")
	assert.False(t, ok)
}

func TestRedis_HealthCheckAndClientDial(t *testing.T) {
	ctx := context.Background()
	mr, _ := setupMiniRedis(t)

	client, err := NewRedisClient(ctx, RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	c := NewRedis[string](client, "ns", time.Minute, zerolog.Nop())
	require.NoError(t, c.HealthCheck(ctx))

	mr.Close()
	assert.Error(t, c.HealthCheck(ctx))
}

func TestNewRedisClientFailsFast(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
