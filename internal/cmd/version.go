package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/ailink/prompt"
	"github.com/namelens/dentalnames/internal/server/handlers"
)

var (
	extended    bool
	versionJSON bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. --extended adds build, dependency and prompt versions; --json prints what GET /version serves.",
	RunE: func(cmd *cobra.Command, args []string) error {
		handlers.SetAppIdentity(GetAppIdentity())
		info := handlers.Describe()
		out := cmd.OutOrStdout()

		switch {
		case versionJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case extended:
			return printExtendedVersion(out, info)
		default:
			_, err := fmt.Fprintf(out, "%s %s\n", info.App.Name, info.App.Version)
			return err
		}
	},
}

func printExtendedVersion(w io.Writer, info handlers.VersionResponse) error {
	fmt.Fprintf(w, "%s %s\n", info.App.Name, info.App.Version)
	fmt.Fprintf(w, "Commit:   %s\nBuilt:    %s\nGo:       %s (%s)\n\n", info.App.Commit, info.App.BuildDate, info.App.GoVersion, info.Runtime.Platform)
	fmt.Fprintf(w, "Gofulmen: %s\nCrucible: %s\n", info.Dependencies.Gofulmen, info.Dependencies.Crucible)

	prompts, err := prompt.DefaultRegistry()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nPrompts:")
	for _, p := range prompts.List() {
		fmt.Fprintf(w, "  %-12s %s\n", p.Config.Slug, p.Config.Version)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print version information as JSON")
}
