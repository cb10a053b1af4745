package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/output"
)

var swatchCmd = &cobra.Command{
	Use:   "swatch <name>",
	Short: "Render a brand palette as a PNG swatch",
	Example: `  dentalnames swatch "Bright Smiles" --primary "#0A7EA4" --accent "#F4B400" \
    --background "#FFFFFF" --foreground "#111111" --out bright-smiles.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		palette := naming.ColorPalette{}
		palette.Primary, _ = flags.GetString("primary")
		palette.Accent, _ = flags.GetString("accent")
		palette.Background, _ = flags.GetString("background")
		palette.Foreground, _ = flags.GetString("foreground")

		outPath, _ := flags.GetString("out")
		outPath = strings.TrimSpace(outPath)
		if outPath == "" {
			outPath = sanitizeFilename(args[0]) + ".png"
		}
		if outPath == "-" {
			return output.RenderSwatch(cmd.OutOrStdout(), args[0], palette)
		}
		if err := writeSwatchFile(outPath, args[0], palette); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), outPath)
		return err
	},
}

func init() {
	rootCmd.AddCommand(swatchCmd)

	swatchCmd.Flags().String("primary", "", "Primary color (#RRGGBB)")
	swatchCmd.Flags().String("accent", "", "Accent color (#RRGGBB)")
	swatchCmd.Flags().String("background", "#FFFFFF", "Background color (#RRGGBB)")
	swatchCmd.Flags().String("foreground", "#111111", "Foreground color (#RRGGBB)")
	swatchCmd.Flags().String("out", "", "PNG path (default <name>.png, - for stdout)")
	_ = swatchCmd.MarkFlagRequired("primary")
	_ = swatchCmd.MarkFlagRequired("accent")
}
