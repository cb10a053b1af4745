package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and resolved configuration. Secrets are never printed.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()
		identity := GetAppIdentity()

		log.Info(fmt.Sprintf("=== %s environment ===", identity.BinaryName))
		log.Info("Application:")
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("  Env prefix: " + identity.EnvPrefix)
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("  Go:         "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH, zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := config.ConfigFileUsed()
		if configFile == "" {
			configFile = config.DefaultConfigPath() + " (not present)"
		}
		log.Info("Configuration:")
		log.Info("  Config file:    " + configFile)
		log.Info(fmt.Sprintf("  Server:         %s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("  CORS origin:    " + valueOr(cfg.Server.CORSOrigin, "(disabled)"))
		log.Info("  Log level:      " + cfg.Logging.Level)
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         " + cfg.Store.URL)
		} else {
			log.Info("  DB path:        " + cfg.Store.Path)
		}
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info("")

		log.Info("Rate limits:")
		log.Info(fmt.Sprintf("  Enabled:        %t", cfg.RateLimit.Enabled))
		log.Info("  Store:          " + cfg.RateLimit.Store)
		if cfg.RateLimit.Store == rateLimitStoreRedis {
			log.Info("  Redis:          " + cfg.RateLimit.Redis.Address + " prefix " + cfg.RateLimit.Redis.Prefix)
		}
		log.Info(fmt.Sprintf("  Burst:          %d per %s", cfg.RateLimit.Burst.Requests, cfg.RateLimit.Burst.Window))
		log.Info(fmt.Sprintf("  Daily:          %d per %s (names only)", cfg.RateLimit.Daily.Requests, cfg.RateLimit.Daily.Window))
		log.Info("")

		log.Info("Generation:")
		log.Info(fmt.Sprintf("  Attempts:       %d", cfg.Generation.MaxAttempts))
		log.Info(fmt.Sprintf("  Backoff:        %s * 2^n + up to %s", cfg.Generation.BaseDelay, cfg.Generation.MaxJitter))
		log.Info("  Default model:  " + valueOr(cfg.AILink.DefaultProvider, "(unset)"))
		log.Info(fmt.Sprintf("  Providers:      %d configured, any enabled: %t", len(cfg.AILink.Providers), cfg.AILink.Configured()))
		log.Info("")

		log.Info("Domains:")
		log.Info("  Extensions:     " + strings.Join(domainExtensions(cfg.Domain), " "))
		log.Info(fmt.Sprintf("  RDAP confirm:   %t", cfg.Domain.ConfirmRDAP))
		log.Info(fmt.Sprintf("  Cache:          %t (available %s, taken %s, unknown %s)",
			cfg.Domain.Cache.Enabled, cfg.Domain.Cache.AvailableTTL, cfg.Domain.Cache.TakenTTL, cfg.Domain.Cache.UnknownTTL))
	},
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
