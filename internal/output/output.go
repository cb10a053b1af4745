package output

import (
	"fmt"
	"strings"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders command results.
type Formatter interface {
	FormatCandidates(candidates []naming.Candidate) (string, error)
	FormatScore(score naming.Score) (string, error)
	FormatTagline(bio naming.TaglineBio) (string, error)
	FormatDomains(results []core.DomainResult) (string, error)
	FormatOptions(catalog naming.Catalog) (string, error)
	FormatRateLimits(entries []store.RateLimitEntry) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func formatScore(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", value), "0"), ".")
}

func domainNotes(r core.DomainResult) string {
	parts := []string{}
	if r.Provenance.Source != "" {
		parts = append(parts, r.Provenance.Source)
	}
	if r.Provenance.FromCache {
		parts = append(parts, "cached")
	}
	if r.Message != "" {
		parts = append(parts, r.Message)
	}
	return strings.Join(parts, "; ")
}

func palette(p naming.ColorPalette) string {
	return strings.Join([]string{p.Primary, p.Accent, p.Background, p.Foreground}, " ")
}
