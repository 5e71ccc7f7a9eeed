package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/config"
	"xfollowers/pkg/supplier"
)

func verified(v bool) *supplier.UserDetail {
	return &supplier.UserDetail{RestID: "1", IsBlueVerified: &v}
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "1", NewEntry(verified(true), time.Minute)))
	entry, err := c.Get(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, entry.Detail.IsBlueVerified)
	assert.True(t, *entry.Detail.IsBlueVerified)

	require.NoError(t, c.Set(ctx, "2", NewEntry(verified(false), -time.Second)))
	_, err = c.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	exerciseCache(t, c)
	assert.Equal(t, 1, c.Len())

	c.entries[Key("3")] = &Entry{Detail: verified(true), Expires: time.Now().Add(-time.Minute)}
	_, err := c.Get(context.Background(), "3")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 1, c.Len())
	assert.NoError(t, c.Close())
}

func TestEntry(t *testing.T) {
	e := NewEntry(verified(true), time.Hour)
	assert.False(t, e.IsExpired())
	assert.InDelta(t, time.Hour.Seconds(), e.TTL().Seconds(), 5)
	assert.Equal(t, "xfollowers:detail:42", Key("42"))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, &config.CacheConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(ctx, &config.CacheConfig{Enabled: true, Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(ctx, &config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}

func TestNewRedisCachePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewRedisCache(nil) })
}

// setupTestRedis connects to XFOLLOWERS_TEST_REDIS_ADDR (default
// localhost:6379, DB 15) and skips when no server answers.
func setupTestRedis(t *testing.T) *RedisCache {
	t.Helper()

	addr := os.Getenv("XFOLLOWERS_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return NewRedisCache(client)
}

func TestRedisCache(t *testing.T) {
	c := setupTestRedis(t)
	exerciseCache(t, c)

	ttl, err := c.redis.TTL(context.Background(), Key("1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.redis.Set(context.Background(), Key("bad"), "not json", time.Minute).Err())
	_, err = c.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidEntry)
}
