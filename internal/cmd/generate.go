package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/output"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate business names for a dental practice",
	Long: `Generate scored business names with brand kits and SEO copy.

The request can be given with flags or as a JSON document with --input
(use - for stdin), in the same shape POST /api/v1/names accepts.`,
	Example: `  dentalnames generate --practice-type Pediatric --location Austin \
    --audience Families --personality Friendly,Playful
  dentalnames generate --input request.json --output-format markdown --swatch-dir swatches`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("input", "", "Read the request as JSON from a file (- for stdin)")
	generateCmd.Flags().String("practice-type", "", "Practice type: "+fmt.Sprint(naming.PracticeTypes))
	generateCmd.Flags().String("location", "", "City or region of the practice")
	generateCmd.Flags().String("country", "", "Country of the practice")
	generateCmd.Flags().StringSlice("audience", nil, "Target audience (repeatable or comma separated)")
	generateCmd.Flags().StringSlice("personality", nil, "Brand personality (repeatable or comma separated)")
	generateCmd.Flags().String("must-include", "", "Words every name must include")
	generateCmd.Flags().String("avoid", "", "Words to avoid")
	generateCmd.Flags().Int("max-length", 0, "Maximum name length in characters")
	generateCmd.Flags().String("owner-name", "", "Include the owner's name in some candidates")
	generateCmd.Flags().String("sort", string(naming.SortByScore), "Sort by score or pronounceability")
	generateCmd.Flags().Bool("check-domains", false, "Check domain availability for every candidate")
	generateCmd.Flags().String("swatch-dir", "", "Write a PNG color swatch per candidate to this directory")
	addOutputFlags(generateCmd)
}

func generateRequest(cmd *cobra.Command) (naming.Request, error) {
	var req naming.Request
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		if err := readRequestFile(input, &req); err != nil {
			return req, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("practice-type") {
		req.PracticeType, _ = flags.GetString("practice-type")
	}
	if flags.Changed("location") {
		req.Location, _ = flags.GetString("location")
	}
	if flags.Changed("country") {
		req.Country, _ = flags.GetString("country")
	}
	if flags.Changed("audience") {
		values, _ := flags.GetStringSlice("audience")
		req.TargetAudience = splitList(values)
	}
	if flags.Changed("personality") {
		values, _ := flags.GetStringSlice("personality")
		req.BrandPersonality = splitList(values)
	}
	if flags.Changed("must-include") {
		req.MustIncludeWords, _ = flags.GetString("must-include")
	}
	if flags.Changed("avoid") {
		req.WordsToAvoid, _ = flags.GetString("avoid")
	}
	if flags.Changed("max-length") {
		req.MaxNameLength, _ = flags.GetInt("max-length")
	}
	if flags.Changed("owner-name") {
		req.OwnerName, _ = flags.GetString("owner-name")
		req.IncludeOwnerName = req.OwnerName != ""
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sortValue, _ := cmd.Flags().GetString("sort")
	sortKey, err := naming.ParseSortKey(sortValue)
	if err != nil {
		return err
	}
	req, err := generateRequest(cmd)
	if err != nil {
		return err
	}
	// Fail on bad input before provider setup.
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

	candidates, err := gen.Generate(ctx, req)
	if err != nil {
		return generationFailure(err)
	}
	candidates = naming.Sort(candidates, sortKey)

	if dir, _ := cmd.Flags().GetString("swatch-dir"); dir != "" {
		if err := writeSwatches(dir, candidates); err != nil {
			return err
		}
	}

	var domains []core.DomainResult
	if check, _ := cmd.Flags().GetBool("check-domains"); check {
		domains, err = checkCandidateDomains(ctx, cmd, candidates)
		if err != nil {
			return err
		}
	}

	return writeResult(cmd, "names", func(f output.Formatter) (string, error) {
		rendered, err := f.FormatCandidates(candidates)
		if err != nil || len(domains) == 0 {
			return rendered, err
		}
		table, err := f.FormatDomains(domains)
		if err != nil {
			return "", err
		}
		return rendered + "\n" + table, nil
	})
}

func checkCandidateDomains(ctx context.Context, cmd *cobra.Command, candidates []naming.Candidate) ([]core.DomainResult, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	lookup, closeFn, err := cliDomainChecker(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn() // nolint:errcheck // best-effort cleanup

	var all []core.DomainResult
	for _, candidate := range candidates {
		results, err := lookup.CheckName(ctx, candidate.Name, domainExtensions(cfg.Domain))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", candidate.Name, err)
		}
		all = append(all, results...)
	}
	return all, nil
}

func writeSwatches(dir string, candidates []naming.Candidate) error {
	dir, err := ensureOutDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for i, candidate := range candidates {
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.png", i+1, sanitizeFilename(candidate.Name)))
		if err := writeSwatchFile(path, candidate.Name, candidate.BrandKit.ColorPalette); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", candidate.Name, err))
		}
	}
	return errors.Join(errs...)
}

func writeSwatchFile(path, name string, palette naming.ColorPalette) error {
	file, err := os.Create(path) // #nosec G304 -- output path is user-provided
	if err != nil {
		return err
	}
	if err := output.RenderSwatch(file, name, palette); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}
