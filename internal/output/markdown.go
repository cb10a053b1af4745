package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatCandidates(candidates []naming.Candidate) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Name ideas\n\n")
	sb.WriteString("| Name | Score | Pronounce | Fonts | Palette | Rationale |\n")
	sb.WriteString("|------|-------|-----------|-------|---------|-----------|\n")
	for _, c := range candidates {
		sb.WriteString(row(
			c.Name,
			formatScore(c.TotalNameScore),
			formatScore(c.PronounceabilityScore),
			c.BrandKit.HeadingFont+" / "+c.BrandKit.BodyFont,
			palette(c.BrandKit.ColorPalette),
			c.Rationale,
		))
	}

	for _, c := range candidates {
		if c.SEO.Title == "" && c.SEO.Description == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n### %s\n\n**SEO title**: %s\n\n%s\n", c.Name, c.SEO.Title, c.SEO.Description))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatScore(score naming.Score) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(score.Name)))
	sb.WriteString(fmt.Sprintf("- **Suitability**: %s/100\n", formatScore(score.SuitabilityScore)))
	sb.WriteString(fmt.Sprintf("- **Pronounceability**: %s/10\n\n", formatScore(score.PronounceabilityScore)))
	sb.WriteString(score.Rationale + "\n")
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatTagline(bio naming.TaglineBio) (string, error) {
	return fmt.Sprintf("## %s\n\n> %s\n\n%s\n", escapeMarkdownCell(bio.BusinessName), bio.Tagline, bio.SocialMediaBio), nil
}

func (f *MarkdownFormatter) FormatDomains(results []core.DomainResult) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Domain | Status | Notes |\n")
	sb.WriteString("|--------|--------|-------|\n")
	for _, r := range results {
		sb.WriteString(row(r.Domain, r.Available.String(), domainNotes(r)))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatOptions(catalog naming.Catalog) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Practice types\n\n")
	for _, pt := range catalog.PracticeTypes {
		sb.WriteString("- " + pt + "\n")
	}
	sb.WriteString("\n## Target audiences\n\n")
	for _, o := range catalog.TargetAudiences {
		sb.WriteString(fmt.Sprintf("- %s (`%s`)\n", o.Label, o.ID))
	}
	sb.WriteString("\n## Brand personalities\n\n")
	for _, o := range catalog.BrandPersonalities {
		sb.WriteString(fmt.Sprintf("- %s (`%s`)\n", o.Label, o.ID))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Key | Count | Last request | Expires |\n")
	sb.WriteString("|-----|-------|--------------|---------|\n")
	for _, e := range entries {
		sb.WriteString(row(
			e.Key,
			fmt.Sprintf("%d", e.State.Count),
			e.State.LastRequest.UTC().Format(time.RFC3339),
			e.ExpiresAt.UTC().Format(time.RFC3339),
		))
	}
	return sb.String(), nil
}

func row(cells ...string) string {
	escaped := make([]string, 0, len(cells))
	for _, c := range cells {
		escaped = append(escaped, escapeMarkdownCell(c))
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}
