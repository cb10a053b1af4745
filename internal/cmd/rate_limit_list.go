package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/store"
	"github.com/namelens/dentalnames/internal/output"
)

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate limit windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openRateLimitAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer backend.close() // nolint:errcheck // best-effort cleanup

		prefix, _ := cmd.Flags().GetString("prefix")
		query := store.RateLimitQuery{Prefix: strings.TrimSpace(prefix)}
		if query.Prefix == "" {
			query.All = true
		}

		entries, err := backend.admin.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}
		return writeResult(cmd, "rate-limit.list", func(f output.Formatter) (string, error) {
			return f.FormatRateLimits(entries)
		})
	},
}

func init() {
	rateLimitListCmd.Flags().String("prefix", "", "List keys with matching prefix (e.g. daily:)")
	addOutputFlags(rateLimitListCmd)
}
