package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/output"
)

var domainsCmd = &cobra.Command{
	Use:   "domains <name>",
	Short: "Check domain availability for a name",
	Long: `Check whether name is registered under each extension.

Spaces are removed and the name is lowercased: "Bright Smiles" checks
brightsmiles.com. DNS answers decide; --rdap confirms apparent availability
with the registry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDomains,
}

func init() {
	rootCmd.AddCommand(domainsCmd)

	domainsCmd.Flags().StringSliceP("ext", "e", nil, "Extensions to check (default from domain.extensions)")
	domainsCmd.Flags().Bool("rdap", false, "Confirm available domains with RDAP")
	domainsCmd.Flags().Bool("no-cache", false, "Skip the domain result cache")
	addOutputFlags(domainsCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	overrides := map[string]any{}
	if rdap, _ := cmd.Flags().GetBool("rdap"); rdap {
		overrides["confirm_rdap"] = true
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		overrides["cache"] = map[string]any{"enabled": false}
	}
	cfg, err := loadConfig(ctx, map[string]any{"domain": overrides})
	if err != nil {
		return err
	}

	extensions := domainExtensions(cfg.Domain)
	if cmd.Flags().Changed("ext") {
		values, _ := cmd.Flags().GetStringSlice("ext")
		extensions = splitList(values)
	}

	lookup, closeFn, err := cliDomainChecker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn() // nolint:errcheck // best-effort cleanup

	name := strings.Join(args, " ")
	results, err := lookup.CheckName(ctx, name, extensions)
	if err != nil {
		return err
	}
	return writeResult(cmd, "domains-"+name, func(f output.Formatter) (string, error) {
		return f.FormatDomains(results)
	})
}
