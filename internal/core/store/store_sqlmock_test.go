package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/core"
)

func newMockStore(t *testing.T, now time.Time) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Store{DB: db, Clock: func() time.Time { return now }, driver: driverLibsql}, mock
}

func TestStoreUpdateWindowInsertsFirstRecord(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT request_count, window_start, last_request FROM rate_windows`).
		WithArgs("burst:1.2.3.4", now.Unix()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO rate_windows`).
		WithArgs("burst:1.2.3.4", 1, now.Unix(), now.Unix(), now.Add(time.Minute).Unix()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.UpdateWindow(context.Background(), "burst:1.2.3.4", time.Minute, func(c *core.WindowState) *core.WindowState {
		require.Nil(t, c)
		return &core.WindowState{Count: 1, WindowStart: now, LastRequest: now}
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateWindowSkipsWriteWhenDenied(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	rows := sqlmock.NewRows([]string{"request_count", "window_start", "last_request"}).
		AddRow(10, now.Add(-30*time.Second).Unix(), now.Add(-time.Second).Unix())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT request_count, window_start, last_request FROM rate_windows`).WillReturnRows(rows)
	mock.ExpectCommit()

	err := store.UpdateWindow(context.Background(), "burst:1.2.3.4", time.Minute, func(c *core.WindowState) *core.WindowState {
		require.NotNil(t, c)
		require.Equal(t, 10, c.Count)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetDomainResult(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	rows := sqlmock.NewRows([]string{"extension", "available", "message", "source", "server", "checked_at", "expires_at"}).
		AddRow(".com", int(core.AvailabilityTaken), "dns records present", "dns", nil, now.Add(-time.Minute).Unix(), now.Add(time.Hour).Unix())
	mock.ExpectQuery(`SELECT extension, available, message, source, server, checked_at, expires_at FROM domain_cache`).
		WithArgs("smile.com", now.Unix()).
		WillReturnRows(rows)

	result, err := store.GetDomainResult(context.Background(), " Smile.com ")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, core.AvailabilityTaken, result.Available)
	require.True(t, result.Provenance.FromCache)
	require.Equal(t, now.Add(time.Hour), *result.Provenance.CacheExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListRateLimitsRequiresSelector(t *testing.T) {
	store, _ := newMockStore(t, time.Now())
	_, err := store.ListRateLimits(context.Background(), RateLimitQuery{})
	require.Error(t, err)
}

func TestStoreCheckHealthPings(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := &Store{DB: db, driver: driverLibsql}

	mock.ExpectPing()
	require.NoError(t, store.CheckHealth(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	require.ErrorIs(t, store.CheckHealth(context.Background()), sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListRateLimitsEscapesPrefix(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	rows := sqlmock.NewRows([]string{"key", "request_count", "window_start", "last_request", "expires_at"}).
		AddRow("burst:10_0", 3, now.Unix(), now.Unix(), now.Add(time.Minute).Unix())
	mock.ExpectQuery(`SELECT key, request_count, window_start, last_request, expires_at FROM rate_windows WHERE key LIKE \?`).
		WithArgs(`burst:10\_%`).
		WillReturnRows(rows)

	entries, err := store.ListRateLimits(context.Background(), RateLimitQuery{Prefix: " burst:10_ "})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "burst:10_0", entries[0].Key)
	require.Equal(t, 3, entries[0].State.Count)
	require.Equal(t, now.Add(time.Minute), entries[0].ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResetRateLimitsByKey(t *testing.T) {
	store, mock := newMockStore(t, time.Now())

	mock.ExpectExec(`DELETE FROM rate_windows WHERE key = \?`).
		WithArgs("daily:1.2.3.4").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := store.ResetRateLimits(context.Background(), RateLimitQuery{Key: "daily:1.2.3.4", Prefix: "ignored"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
