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

// GetDomainResult returns a cached domain result if it is still valid.
func (s *Store) GetDomainResult(ctx context.Context, domain string) (*core.DomainResult, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	var (
		extension string
		available int
		message   sql.NullString
		source    sql.NullString
		server    sql.NullString
		checkedAt int64
		expiresAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT extension, available, message, source, server, checked_at, expires_at
		FROM domain_cache
		WHERE domain = ? AND expires_at >= ?
	`, domain, s.now().Unix())

	if err := row.Scan(&extension, &available, &message, &source, &server, &checkedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached domain: %w", err)
	}

	expires := time.Unix(expiresAt, 0).UTC()
	return &core.DomainResult{
		Domain:    domain,
		Extension: extension,
		Available: core.Availability(available),
		Message:   message.String,
		Provenance: core.Provenance{
			ResolvedAt:     time.Unix(checkedAt, 0).UTC(),
			Source:         source.String,
			Server:         server.String,
			FromCache:      true,
			CacheExpiresAt: &expires,
		},
	}, nil
}

// SetDomainResult stores a domain result with a TTL.
func (s *Store) SetDomainResult(ctx context.Context, result *core.DomainResult, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ttl <= 0 || result == nil {
		return nil
	}

	domain := strings.ToLower(strings.TrimSpace(result.Domain))
	if domain == "" {
		return errors.New("domain is required")
	}

	checked := result.Provenance.ResolvedAt
	if checked.IsZero() {
		checked = s.now()
	}
	expires := s.now().Add(ttl)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO domain_cache (domain, extension, available, message, source, server, checked_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			extension = excluded.extension,
			available = excluded.available,
			message = excluded.message,
			source = excluded.source,
			server = excluded.server,
			checked_at = excluded.checked_at,
			expires_at = excluded.expires_at
	`, domain, result.Extension, int(result.Available), result.Message, result.Provenance.Source, result.Provenance.Server, checked.UTC().Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached domain: %w", err)
	}
	return nil
}
