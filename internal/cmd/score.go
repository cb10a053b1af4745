package cmd

import (
	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/output"
)

var scoreCmd = &cobra.Command{
	Use:   "score <name>",
	Short: "Score an existing practice name",
	Long:  "Rate how pronounceable and how suitable an existing name is for the described practice.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("input", "", "Read the request as JSON from a file (- for stdin)")
	scoreCmd.Flags().String("practice-type", "", "Practice type")
	scoreCmd.Flags().String("location", "", "City or region of the practice")
	scoreCmd.Flags().StringSlice("audience", nil, "Target audience")
	scoreCmd.Flags().StringSlice("personality", nil, "Brand personality")
	scoreCmd.Flags().String("must-include", "", "Words the name should include")
	scoreCmd.Flags().String("avoid", "", "Words to avoid")
	addOutputFlags(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var req naming.NameScoreRequest
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		if err := readRequestFile(input, &req); err != nil {
			return err
		}
	}
	if len(args) == 1 {
		req.Name = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("practice-type") {
		req.PracticeType, _ = flags.GetString("practice-type")
	}
	if flags.Changed("location") {
		req.Location, _ = flags.GetString("location")
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

	score, err := gen.Score(ctx, req)
	if err != nil {
		return generationFailure(err)
	}
	return writeResult(cmd, "score-"+score.Name, func(f output.Formatter) (string, error) {
		return f.FormatScore(score)
	})
}
