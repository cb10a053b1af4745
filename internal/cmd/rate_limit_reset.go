package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/store"
	"github.com/namelens/dentalnames/internal/metrics"
	"github.com/namelens/dentalnames/internal/output"
)

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored rate limit windows",
	Example: `  dentalnames rate-limit reset --key daily:203.0.113.7
  dentalnames rate-limit reset --prefix burst: --dry-run
  dentalnames rate-limit reset --all --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		all, _ := flags.GetBool("all")
		key, _ := flags.GetString("key")
		prefix, _ := flags.GetString("prefix")
		yes, _ := flags.GetBool("yes")
		dryRun, _ := flags.GetBool("dry-run")

		query := store.RateLimitQuery{
			All:    all,
			Key:    strings.TrimSpace(key),
			Prefix: strings.TrimSpace(prefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !yes && !dryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		backend, err := openRateLimitAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer backend.close() // nolint:errcheck // best-effort cleanup

		matched, err := backend.admin.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		result := rateLimitResetResult{Matched: len(matched), DryRun: dryRun}
		if !dryRun {
			result.Deleted, err = backend.admin.ResetRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}
			metrics.RecordRateLimitReset(backend.name, result.Deleted)
		}

		return writeResult(cmd, "rate-limit.reset", func(f output.Formatter) (string, error) {
			return result.render(f)
		})
	},
}

type rateLimitResetResult struct {
	Matched int   `json:"matched"`
	Deleted int64 `json:"deleted"`
	DryRun  bool  `json:"dry_run"`
}

func (r rateLimitResetResult) render(f output.Formatter) (string, error) {
	if _, ok := f.(*output.JSONFormatter); ok {
		payload, err := json.MarshalIndent(r, "", "  ")
		return string(payload), err
	}
	if r.DryRun {
		return fmt.Sprintf("Would delete %d rate limit entr(ies)", r.Matched), nil
	}
	return fmt.Sprintf("Deleted %d/%d rate limit entr(ies)", r.Deleted, r.Matched), nil
}

func init() {
	rateLimitResetCmd.Flags().Bool("all", false, "Reset every stored window")
	rateLimitResetCmd.Flags().String("key", "", "Reset a single key (exact match, e.g. daily:203.0.113.7)")
	rateLimitResetCmd.Flags().String("prefix", "", "Reset keys with matching prefix")
	rateLimitResetCmd.Flags().Bool("yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().Bool("dry-run", false, "Show what would be deleted")
	addOutputFlags(rateLimitResetCmd)
}
