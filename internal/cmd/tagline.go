package cmd

import (
	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/output"
)

var taglineCmd = &cobra.Command{
	Use:     "tagline <business-name>",
	Aliases: []string{"taglines"},
	Short:   "Write a tagline and social bio for a chosen name",
	Args:    cobra.ExactArgs(1),
	RunE:    runTagline,
}

func init() {
	rootCmd.AddCommand(taglineCmd)

	taglineCmd.Flags().StringSlice("personality", nil, "Brand personality (repeatable or comma separated)")
	_ = taglineCmd.MarkFlagRequired("personality")
	addOutputFlags(taglineCmd)
}

func runTagline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	personality, _ := cmd.Flags().GetStringSlice("personality")
	req := naming.TaglineRequest{
		BusinessName:     args[0],
		BrandPersonality: splitList(personality),
	}
	if err := req.Normalize().Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg, cliLogger())
	if err != nil {
		return err
	}

	bio, err := gen.Tagline(ctx, req)
	if err != nil {
		return generationFailure(err)
	}
	return writeResult(cmd, "tagline-"+bio.BusinessName, func(f output.Formatter) (string, error) {
		return f.FormatTagline(bio)
	})
}
