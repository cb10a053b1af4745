package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/config"
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and reset stored client rate limit windows",
	Long: `Inspect and reset the per-client windows the API server keeps.

Keys have the form <scope>:<client>, for example daily:203.0.113.7.
Only the redis and libsql stores outlive the server process.`,
}

func init() {
	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}

// openRateLimitAdmin opens the shared window store named by ratelimit.store.
func openRateLimitAdmin(ctx context.Context) (*rateLimitBackend, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.Store == "" || cfg.RateLimit.Store == rateLimitStoreMemory {
		return nil, fmt.Errorf("ratelimit.store is %q: windows live in the server process (use redis or libsql)", rateLimitStoreMemory)
	}
	return openRateLimitBackend(ctx, &config.Config{RateLimit: cfg.RateLimit, Store: cfg.Store}, nil)
}
