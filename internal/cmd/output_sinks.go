package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namelens/dentalnames/internal/output"
)

var fileExtensions = map[output.Format]string{
	output.FormatJSON:     "json",
	output.FormatMarkdown: "md",
	output.FormatTable:    "txt",
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	cmd.Flags().String("out", "", "Write output to a file (default stdout)")
	cmd.Flags().String("out-dir", "", "Write output to a directory, one file per run")
	cmd.MarkFlagsMutuallyExclusive("out", "out-dir")
}

// writeResult renders through the --output-format formatter and writes the
// result to --out, to <stem>.<ext> inside --out-dir, or to stdout.
func writeResult(cmd *cobra.Command, stem string, render func(output.Formatter) (string, error)) error {
	raw, _ := cmd.Flags().GetString("output-format")
	format, err := output.ParseFormat(raw)
	if err != nil {
		return err
	}

	rendered, err := render(output.NewFormatter(format))
	if err != nil {
		return err
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}

	path, err := sinkPath(cmd, stem, format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), rendered)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(rendered), 0o644) // #nosec G306 -- user output
}

// sinkPath returns "" for stdout.
func sinkPath(cmd *cobra.Command, stem string, format output.Format) (string, error) {
	out, _ := cmd.Flags().GetString("out")
	dir, _ := cmd.Flags().GetString("out-dir")
	out, dir = strings.TrimSpace(out), strings.TrimSpace(dir)

	switch {
	case out != "" && dir != "":
		return "", errors.New("--out and --out-dir are mutually exclusive")
	case out == "-":
		return "", nil
	case out != "":
		return out, nil
	case dir != "":
		abs, err := ensureOutDir(dir)
		if err != nil {
			return "", err
		}
		ext, ok := fileExtensions[format]
		if !ok {
			ext = "txt"
		}
		return filepath.Join(abs, sanitizeFilename(stem)+"."+ext), nil
	}
	return "", nil
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFilename lowercases value and collapses anything unsafe to '-'.
func sanitizeFilename(value string) string {
	clean := nonFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	if clean = strings.Trim(clean, "-."); clean == "" {
		return "output"
	}
	return clean
}

func ensureOutDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs, nil
	}
	return dir, nil
}
