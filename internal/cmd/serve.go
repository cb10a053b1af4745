package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/core/store"
	errwrap "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/metrics"
	"github.com/namelens/dentalnames/internal/observability"
	"github.com/namelens/dentalnames/internal/server"
	"github.com/namelens/dentalnames/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the JSON API under /api/v1 with health, version and metrics endpoints.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: reload the log level from configuration`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides server.host)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "server port (overrides server.port)")
}

func serveOverrides(cmd *cobra.Command) map[string]any {
	srv := map[string]any{}
	if cmd.Flags().Changed("host") {
		srv["host"] = serverHost
	}
	if cmd.Flags().Changed("port") {
		srv["port"] = serverPort
	}
	if len(srv) == 0 {
		return nil
	}
	return map[string]any{"server": srv}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	var overrides []map[string]any
	if o := serveOverrides(cmd); o != nil {
		overrides = append(overrides, o)
	}
	cfg, err := loadConfig(ctx, overrides...)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Invalid configuration", err)
	}

	if err := observability.InitServerLogger(identity.BinaryName, serverLogging(cfg.Logging), namespace); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Invalid logging configuration", err)
	}
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(namespace, cfg.Metrics); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
		defer observability.StopMetrics() // nolint:errcheck // best-effort cleanup
	}

	var db *store.Store
	if cfg.RateLimit.Store == rateLimitStoreLibsql || cfg.Domain.Cache.Enabled && cfg.RateLimit.Store != rateLimitStoreRedis {
		db, err = openStore(ctx, cfg.Store)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "store initialization failed")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
	}

	backend, err := openRateLimitBackend(ctx, cfg, db)
	if err != nil {
		return errwrap.WrapInternal(ctx, err, "rate limit store initialization failed")
	}
	defer backend.close() // nolint:errcheck // best-effort cleanup

	cache := backend.cache
	if db != nil && backend.name == rateLimitStoreMemory {
		cache = db
	}

	generator, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}

	handlers.SetAppIdentity(identity)
	health := handlers.InitHealthManager(versionInfo.Version)
	if cfg.Metrics.Enabled {
		health.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	if db != nil {
		health.RegisterChecker("store", handlers.CheckerFunc(db.CheckHealth))
	}
	if backend.health != nil && backend.name == rateLimitStoreRedis {
		// Requests are admitted without limiting while redis is down.
		health.RegisterOptionalChecker("ratelimit_redis", handlers.CheckerFunc(backend.health))
	}

	deps := server.Dependencies{
		API: &handlers.API{
			Generator:  generator,
			Checker:    newDomainChecker(cfg.Domain, cache),
			Extensions: domainExtensions(cfg.Domain),
			Logger:     logger,
		},
		Health:     health,
		AdminToken: strings.TrimSpace(os.Getenv(identity.EnvPrefix + "ADMIN_TOKEN")),
		CORSOrigin: cfg.Server.CORSOrigin,
	}
	if cfg.RateLimit.Enabled {
		deps.Limiter = newRateLimiter(cfg.RateLimit, backend.windows)
	}

	srv := server.New(cfg.Server, deps)

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.String("rate_limit_store", backend.name),
		zap.Strings("extensions", deps.API.Extensions))

	// Shutdown handlers run LIFO: the server stops before the logger flushes.
	signals.OnShutdown(func(ctx context.Context) error {
		if err := logger.Sync(); err != nil {
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout(cfg.Server))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: reloading configuration")
		reloaded, err := config.Load(ctx, overrides...)
		if err != nil {
			logger.Error("Failed to reload configuration", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}
		if err := observability.InitServerLogger(identity.BinaryName, serverLogging(reloaded.Logging), namespace); err != nil {
			logger.Error("Failed to rebuild logger", zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "logger reload failed")
		}
		logger = observability.ServerLogger
		logger.Info("Configuration reloaded", zap.String("file", config.ConfigFileUsed()))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		metrics.SetServerStartTime(time.Now().Unix())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(ctx, err, "server error")
	}
	return nil
}

// serverLogging applies --verbose on top of the configured level.
func serverLogging(cfg config.LoggingConfig) config.LoggingConfig {
	if verbose {
		cfg.Level = "debug"
	}
	return cfg
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 10 * time.Second
}
