package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/core"
)

func newMiniRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:"), server
}

func TestRedisStoreUpdateWindow(t *testing.T) {
	store, server := newMiniRedisStore(t)
	ctx := context.Background()

	last := time.Now().UTC()
	write := func(c *core.WindowState) *core.WindowState {
		if c == nil {
			return &core.WindowState{Count: 1, WindowStart: last, LastRequest: last}
		}
		next := *c
		next.Count++
		return &next
	}
	require.NoError(t, store.UpdateWindow(ctx, "burst:10.0.0.1", time.Minute, write))
	require.NoError(t, store.UpdateWindow(ctx, "burst:10.0.0.1", time.Minute, write))

	raw, err := server.Get("test:ratelimit:burst:10.0.0.1")
	require.NoError(t, err)
	var state core.WindowState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Equal(t, 2, state.Count)
	require.True(t, server.TTL("test:ratelimit:burst:10.0.0.1") > 0)

	server.FastForward(2 * time.Minute)
	var seen *core.WindowState
	require.NoError(t, store.UpdateWindow(ctx, "burst:10.0.0.1", time.Minute, func(c *core.WindowState) *core.WindowState {
		seen = c
		return nil
	}))
	require.Nil(t, seen)
}

func TestRedisStoreListAndReset(t *testing.T) {
	store, _ := newMiniRedisStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, key := range []string{"burst:a", "burst:b", "daily:a"} {
		require.NoError(t, store.UpdateWindow(ctx, key, time.Hour, func(*core.WindowState) *core.WindowState {
			return &core.WindowState{Count: 3, WindowStart: now, LastRequest: now}
		}))
	}

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{Prefix: "burst:"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "burst:a", entries[0].Key)
	require.Equal(t, 3, entries[0].State.Count)
	require.False(t, entries[0].ExpiresAt.IsZero())

	removed, err := store.ResetRateLimits(ctx, RateLimitQuery{Key: "daily:a"})
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	removed, err = store.ResetRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)
}

func TestRedisStoreDomainCache(t *testing.T) {
	store, server := newMiniRedisStore(t)
	ctx := context.Background()

	result := &core.DomainResult{Domain: "smile.clinic", Extension: ".clinic", Available: core.AvailabilityAvailable}
	require.NoError(t, store.SetDomainResult(ctx, result, 5*time.Minute))

	cached, err := store.GetDomainResult(ctx, "SMILE.clinic")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, core.AvailabilityAvailable, cached.Available)

	server.FastForward(6 * time.Minute)
	cached, err = store.GetDomainResult(ctx, "smile.clinic")
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestRedisStoreDomainCacheErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")

	mock.ExpectGet("dentalnames:domain:smile.com").RedisNil()
	cached, err := store.GetDomainResult(context.Background(), "smile.com")
	require.NoError(t, err)
	require.Nil(t, cached)

	mock.ExpectGet("dentalnames:domain:broken.com").SetVal("{not json")
	_, err = store.GetDomainResult(context.Background(), "broken.com")
	require.Error(t, err)

	mock.ExpectGet("dentalnames:domain:down.com").SetErr(redis.ErrClosed)
	_, err = store.GetDomainResult(context.Background(), "down.com")
	require.ErrorIs(t, err, redis.ErrClosed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreCheckHealth(t *testing.T) {
	store, server := newMiniRedisStore(t)
	require.NoError(t, store.CheckHealth(context.Background()))

	server.Close()
	require.Error(t, store.CheckHealth(context.Background()))

	var missing *RedisStore
	require.Error(t, missing.CheckHealth(context.Background()))
}
