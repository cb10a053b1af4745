package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/namelens/dentalnames/internal/core"
)

// RateLimitEntry is one stored client window.
type RateLimitEntry struct {
	Key       string           `json:"key"`
	State     core.WindowState `json:"state"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RateLimitQuery selects windows for listing or reset. Exactly one of the
// fields is honored, in the order All, Key, Prefix.
type RateLimitQuery struct {
	All    bool
	Key    string
	Prefix string
}

// RateLimitAdmin lists and resets stored windows.
type RateLimitAdmin interface {
	ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error)
	ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error)
}

var errNoSelector = errors.New("must specify --all, --key, or --prefix")

func (q RateLimitQuery) Validate() error {
	if q.All || strings.TrimSpace(q.Key) != "" || strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errNoSelector
}

// Matches reports whether key is selected by q.
func (q RateLimitQuery) Matches(key string) bool {
	if q.All {
		return true
	}
	if k := strings.TrimSpace(q.Key); k != "" {
		return key == k
	}
	p := strings.TrimSpace(q.Prefix)
	return p != "" && strings.HasPrefix(key, p)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filter renders q as a SQL condition on rate_windows.key.
func (q RateLimitQuery) filter() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	switch {
	case q.All:
		return "1 = 1", nil, nil
	case strings.TrimSpace(q.Key) != "":
		return "key = ?", []any{strings.TrimSpace(q.Key)}, nil
	default:
		return `key LIKE ? ESCAPE '\'`, []any{likeEscaper.Replace(strings.TrimSpace(q.Prefix)) + "%"}, nil
	}
}

func (s *Store) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	cond, args, err := q.filter()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT key, request_count, window_start, last_request, expires_at FROM rate_windows WHERE "+cond+" ORDER BY key",
		args...)
	if err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	entries := []RateLimitEntry{}
	for rows.Next() {
		var (
			e                        RateLimitEntry
			start, last, expiresUnix int64
		)
		if err := rows.Scan(&e.Key, &e.State.Count, &start, &last, &expiresUnix); err != nil {
			return nil, fmt.Errorf("scan rate limits: %w", err)
		}
		e.State.WindowStart = time.Unix(start, 0).UTC()
		e.State.LastRequest = time.Unix(last, 0).UTC()
		e.ExpiresAt = time.Unix(expiresUnix, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	return entries, nil
}

func (s *Store) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	cond, args, err := q.filter()
	if err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, "DELETE FROM rate_windows WHERE "+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	return n, nil
}
