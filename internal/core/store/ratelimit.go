package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/namelens/dentalnames/internal/core"
)

// UpdateWindow applies fn to the window stored under key inside a transaction.
func (s *Store) UpdateWindow(ctx context.Context, key string, ttl time.Duration, fn func(*core.WindowState) *core.WindowState) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("rate limit key is required")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate limit update: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	now := s.now()
	var (
		count       int
		windowStart int64
		lastRequest int64
	)
	row := tx.QueryRowContext(ctx, `
		SELECT request_count, window_start, last_request
		FROM rate_windows
		WHERE key = ? AND expires_at >= ?
	`, key, now.Unix())

	var current *core.WindowState
	switch err := row.Scan(&count, &windowStart, &lastRequest); {
	case err == nil:
		current = &core.WindowState{
			Count:       count,
			WindowStart: time.Unix(windowStart, 0).UTC(),
			LastRequest: time.Unix(lastRequest, 0).UTC(),
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("fetch rate limit: %w", err)
	}

	next := fn(current)
	if next == nil {
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rate_windows (key, request_count, window_start, last_request, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			request_count = excluded.request_count,
			window_start = excluded.window_start,
			last_request = excluded.last_request,
			expires_at = excluded.expires_at
	`, key, next.Count, next.WindowStart.UTC().Unix(), next.LastRequest.UTC().Unix(), next.LastRequest.Add(ttl).UTC().Unix())
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}
	return tx.Commit()
}
