package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS domain_cache (
		domain TEXT PRIMARY KEY,
		extension TEXT NOT NULL,
		available INTEGER NOT NULL,
		message TEXT,
		source TEXT,
		server TEXT,
		checked_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_domain_cache_expires ON domain_cache(expires_at);`,
	`CREATE TABLE IF NOT EXISTS rate_windows (
		key TEXT PRIMARY KEY,
		request_count INTEGER NOT NULL DEFAULT 0,
		window_start INTEGER NOT NULL,
		last_request INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_rate_windows_expires ON rate_windows(expires_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}
	return nil
}

// Prune deletes expired cache rows and rate windows.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	now := s.now().Unix()
	var total int64
	for _, table := range []string{"domain_cache", "rate_windows"} {
		result, err := s.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table), now)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		total += affected
	}
	return total, nil
}
