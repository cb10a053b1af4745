//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/core"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func TestOpenLocalFileEnablesWAL(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Path: filepath.Join(t.TempDir(), "nested", "dentalnames.db")})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.Equal(t, 1, store.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", strings.ToLower(journalMode))

	var busyTimeout int
	require.NoError(t, store.DB.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Path: "file:" + t.TempDir() + "/dentalnames.db"})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.UpdateWindow(ctx, "daily:9.9.9.9", 24*time.Hour, func(c *core.WindowState) *core.WindowState {
			if c == nil {
				return &core.WindowState{Count: 1, WindowStart: now, LastRequest: now}
			}
			next := *c
			next.Count++
			return &next
		}))
	}

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{Prefix: "daily:"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].State.Count)
	require.Equal(t, now, entries[0].State.WindowStart)

	result := &core.DomainResult{Domain: "smile.dentist", Extension: ".dentist", Available: core.AvailabilityAvailable, Provenance: core.Provenance{Source: "dns", ResolvedAt: now}}
	require.NoError(t, store.SetDomainResult(ctx, result, time.Hour))
	cached, err := store.GetDomainResult(ctx, "smile.dentist")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, core.AvailabilityAvailable, cached.Available)

	removed, err := store.ResetRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}
