package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/ailink"
	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/core/checker"
	"github.com/namelens/dentalnames/internal/core/engine"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
	"github.com/namelens/dentalnames/internal/observability"
	"github.com/namelens/dentalnames/internal/retry"
)

// Rate limit store names accepted by ratelimit.store.
const (
	rateLimitStoreMemory = "memory"
	rateLimitStoreRedis  = "redis"
	rateLimitStoreLibsql = "libsql"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// rateLimitBackend is the window store selected by ratelimit.store.
type rateLimitBackend struct {
	name    string
	windows engine.WindowStore
	admin   store.RateLimitAdmin
	cache   checker.DomainCache
	health  func(ctx context.Context) error
	close   func() error
}

// openRateLimitBackend opens the configured window store. The libsql store
// reuses db when it is already open.
func openRateLimitBackend(ctx context.Context, cfg *config.Config, db *store.Store) (*rateLimitBackend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.RateLimit.Store))
	if name == "" {
		name = rateLimitStoreMemory
	}

	switch name {
	case rateLimitStoreMemory:
		mem := store.NewMemoryStore()
		return &rateLimitBackend{
			name:    name,
			windows: mem,
			admin:   mem,
			cache:   mem,
			close:   func() error { return nil },
		}, nil
	case rateLimitStoreRedis:
		rs, err := store.OpenRedis(ctx, cfg.RateLimit.Redis)
		if err != nil {
			return nil, err
		}
		return &rateLimitBackend{
			name:    name,
			windows: rs,
			admin:   rs,
			cache:   rs,
			health:  rs.CheckHealth,
			close:   rs.Close,
		}, nil
	case rateLimitStoreLibsql:
		closeFn := func() error { return nil }
		if db == nil {
			var err error
			db, err = openStore(ctx, cfg.Store)
			if err != nil {
				return nil, err
			}
			closeFn = db.Close
		}
		return &rateLimitBackend{
			name:    name,
			windows: db,
			admin:   db,
			cache:   db,
			health:  db.CheckHealth,
			close:   closeFn,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit store: %s", name)
	}
}

func newRateLimiter(cfg config.RateLimitConfig, windows engine.WindowStore) *engine.RateLimiter {
	limiter := &engine.RateLimiter{Store: windows}
	limiter.ApplyOverrides(map[string]engine.RateLimit{
		engine.ScopeBurst: {RequestsPerWindow: cfg.Burst.Requests, WindowDuration: cfg.Burst.Window},
		engine.ScopeDaily: {RequestsPerWindow: cfg.Daily.Requests, WindowDuration: cfg.Daily.Window},
	})
	return limiter
}

func newDomainChecker(cfg config.DomainConfig, cache checker.DomainCache) *checker.DomainChecker {
	d := &checker.DomainChecker{
		Timeout:     cfg.Timeout,
		ConfirmRDAP: cfg.ConfirmRDAP,
		CachePolicy: checker.CachePolicy{
			AvailableTTL: cfg.Cache.AvailableTTL,
			TakenTTL:     cfg.Cache.TakenTTL,
			UnknownTTL:   cfg.Cache.UnknownTTL,
		},
	}
	if cfg.Cache.Enabled {
		d.Cache = cache
	}
	if len(cfg.RDAPOverrides) > 0 {
		d.RDAPOverrides = make(map[string][]string, len(cfg.RDAPOverrides))
		for tld, servers := range cfg.RDAPOverrides {
			tld = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")
			for _, server := range strings.Split(servers, ",") {
				if server = strings.TrimSpace(server); server != "" {
					d.RDAPOverrides[tld] = append(d.RDAPOverrides[tld], server)
				}
			}
		}
	}
	return d
}

func domainExtensions(cfg config.DomainConfig) []string {
	if len(cfg.Extensions) > 0 {
		return cfg.Extensions
	}
	return checker.DefaultExtensions
}

var errNoProviders = errors.New("no model provider configured (set ailink.providers in the config file or DENTALNAMES_AILINK_PROVIDERS_* variables)")

// newGenerator wires the model service into a Generator with the configured retry policy.
func newGenerator(cfg *config.Config, logger *logging.Logger) (*naming.Generator, error) {
	if !cfg.AILink.Configured() {
		return nil, errNoProviders
	}
	service, err := ailink.NewService(cfg.AILink, logger)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	gen := naming.NewGenerator(service, logger)
	gen.Policy = retryPolicy(cfg.Generation)
	return gen, nil
}

func retryPolicy(cfg config.GenerationConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxJitter >= 0 {
		policy.MaxJitter = cfg.MaxJitter
	}
	return policy
}

// cliDomainChecker returns a checker caching in the libsql store when the
// domain cache is enabled. A store that cannot be opened disables the cache.
func cliDomainChecker(ctx context.Context, cfg *config.Config) (*checker.DomainChecker, func() error, error) {
	closeFn := func() error { return nil }
	var cache checker.DomainCache
	if cfg.Domain.Cache.Enabled {
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			cliLogger().Warn("Domain cache unavailable", zap.Error(err))
		} else {
			cache = db
			closeFn = db.Close
		}
	}
	return newDomainChecker(cfg.Domain, cache), closeFn, nil
}

func cliLogger() *logging.Logger {
	return observability.CLILogger
}

// generationFailure keeps model diagnostics in the debug log and returns the
// message shown to API clients.
func generationFailure(err error) error {
	var genErr *naming.GenerationError
	if !errors.As(err, &genErr) {
		return err
	}
	if logger := cliLogger(); logger != nil {
		logger.Debug("Generation failed",
			zap.String("prompt", genErr.Prompt),
			zap.Int("attempts", genErr.Attempts),
			zap.Error(genErr.Err))
	}
	return errors.New(genErr.UserMessage())
}
