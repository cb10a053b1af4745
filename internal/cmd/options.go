package cmd

import (
	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/output"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List practice types, audiences and personalities accepted by generate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		catalog := naming.Options(domainExtensions(cfg.Domain))
		return writeResult(cmd, "options", func(f output.Formatter) (string, error) {
			return f.FormatOptions(catalog)
		})
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	addOutputFlags(optionsCmd)
}
