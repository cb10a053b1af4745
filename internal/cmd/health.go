package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/ailink"
	"github.com/namelens/dentalnames/internal/config"
	errwrap "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/observability"
)

type selfCheck struct {
	name     string
	required bool
	run      func(ctx context.Context, cfg *config.Config) error
}

var selfChecks = []selfCheck{
	{name: "prompts", required: true, run: func(ctx context.Context, cfg *config.Config) error {
		_, err := ailink.NewService(cfg.AILink, nil)
		return err
	}},
	{name: "providers", run: func(ctx context.Context, cfg *config.Config) error {
		if !cfg.AILink.Configured() {
			return errNoProviders
		}
		return nil
	}},
	{name: "store", required: true, run: func(ctx context.Context, cfg *config.Config) error {
		if cfg.RateLimit.Store != rateLimitStoreLibsql && !cfg.Domain.Cache.Enabled {
			return nil
		}
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
		return db.CheckHealth(ctx)
	}},
	{name: "ratelimit", required: true, run: func(ctx context.Context, cfg *config.Config) error {
		if cfg.RateLimit.Store != rateLimitStoreRedis {
			return nil
		}
		backend, err := openRateLimitBackend(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer backend.close() // nolint:errcheck // best-effort cleanup
		return backend.health(ctx)
	}},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify configuration, prompts, model providers and the configured stores before serving.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", err)
			return
		}
		logger.Info("✅ Configuration loaded", zap.String("config_file", config.ConfigFileUsed()))

		failed := 0
		for _, check := range selfChecks {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			err := check.run(ctx, cfg)
			cancel()

			switch {
			case err == nil:
				logger.Info("✅ " + check.name)
			case check.required:
				failed++
				logger.Error("❌ "+check.name, zap.Error(err))
			default:
				logger.Warn("⚠️  "+check.name, zap.Error(err))
			}
		}

		if failed > 0 {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, fmt.Sprintf("%d health check(s) failed", failed), nil)
			return
		}
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
