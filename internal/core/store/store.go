package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/namelens/dentalnames/internal/config"
)

const driverLibsql = "libsql"

// Store is the libsql database holding the domain cache and rate limit windows.
type Store struct {
	DB     *sql.DB
	Clock  func() time.Time
	driver string
}

// target is where a libsql connection points. Local files get WAL and a
// single writer connection; remote Turso URLs are used as given.
type target struct {
	dsn   string
	local bool
	dir   string
}

// Open connects to the store described by cfg and pings it.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if d := strings.TrimSpace(cfg.Driver); d != "" && d != driverLibsql {
		return nil, fmt.Errorf("unsupported store driver: %s", d)
	}

	tgt, err := resolveTarget(cfg)
	if err != nil {
		return nil, err
	}
	if tgt.dir != "" {
		// #nosec G301 -- data directory shared with other local tools
		if err := os.MkdirAll(tgt.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open(driverLibsql, tgt.dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql store: %w", err)
	}
	if err := prepare(ctx, db, tgt.local); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{DB: db, driver: driverLibsql}, nil
}

func prepare(ctx context.Context, db *sql.DB, local bool) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping libsql store: %w", err)
	}
	if !local {
		return nil
	}

	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		var ignored any
		if err := db.QueryRowContext(ctx, pragma).Scan(&ignored); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}
	return nil
}

// resolveTarget turns the store config into a DSN. URL wins over Path.
// Paths may be bare, "file:" or "libsql:" prefixed, or ":memory:".
func resolveTarget(cfg config.StoreConfig) (target, error) {
	if raw := strings.TrimSpace(cfg.URL); raw != "" {
		dsn, err := withAuthToken(raw, strings.TrimSpace(cfg.AuthToken))
		return target{dsn: dsn}, err
	}

	path := strings.TrimSpace(cfg.Path)
	switch {
	case path == "":
		return target{}, errors.New("store path or url is required")
	case path == ":memory:", strings.HasPrefix(path, "libsql:"):
		return target{dsn: path}, nil
	case strings.HasPrefix(path, "file:"):
		u, err := url.Parse(path)
		if err != nil {
			return target{}, fmt.Errorf("invalid store path: %w", err)
		}
		local := u.Path
		if local == "" {
			local = u.Opaque
		}
		return target{dsn: path, local: true, dir: parentDir(strings.TrimPrefix(local, "//"))}, nil
	default:
		clean := filepath.Clean(path)
		return target{dsn: "file:" + clean, local: true, dir: parentDir(clean)}, nil
	}
}

func withAuthToken(raw, token string) (string, error) {
	if token == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	q := u.Query()
	if q.Get("authToken") == "" {
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func parentDir(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// CheckHealth pings the database.
func (s *Store) CheckHealth(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not open")
	}
	return s.DB.PingContext(ctx)
}

func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

func (s *Store) now() time.Time {
	if s != nil && s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
