package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Footers carry counts in prose ("3 names"); keep their casing.
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func (f *TableFormatter) FormatCandidates(candidates []naming.Candidate) (string, error) {
	if len(candidates) == 0 {
		return "(no names)", nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "Name", "Score", "Pronounce", "Fonts", "Palette", "Rationale"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 7, WidthMax: 60},
	})
	for i, c := range candidates {
		t.AppendRow(table.Row{
			i + 1,
			c.Name,
			formatScore(c.TotalNameScore),
			formatScore(c.PronounceabilityScore),
			c.BrandKit.HeadingFont + " / " + c.BrandKit.BodyFont,
			palette(c.BrandKit.ColorPalette),
			c.Rationale,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d names", len(candidates)), "", "", "", "", ""})
	return t.Render(), nil
}

func (f *TableFormatter) FormatScore(score naming.Score) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Suitability", "Pronounce", "Rationale"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 70}})
	t.AppendRow(table.Row{
		score.Name,
		formatScore(score.SuitabilityScore),
		formatScore(score.PronounceabilityScore),
		score.Rationale,
	})
	return t.Render(), nil
}

func (f *TableFormatter) FormatTagline(bio naming.TaglineBio) (string, error) {
	t := newTable()
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 70}})
	t.AppendRow(table.Row{"Name", bio.BusinessName})
	t.AppendRow(table.Row{"Tagline", bio.Tagline})
	t.AppendRow(table.Row{"Bio", bio.SocialMediaBio})
	return t.Render(), nil
}

func (f *TableFormatter) FormatDomains(results []core.DomainResult) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Domain", "Status", "Notes"})

	available := 0
	for _, r := range results {
		if r.Available == core.AvailabilityAvailable {
			available++
		}
		t.AppendRow(table.Row{r.Domain, r.Available.String(), domainNotes(r)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d available", available, len(results)), ""})
	return t.Render(), nil
}

func (f *TableFormatter) FormatOptions(catalog naming.Catalog) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Option", "Values"})
	t.AppendRow(table.Row{"Practice types", strings.Join(catalog.PracticeTypes, ", ")})
	t.AppendRow(table.Row{"Target audiences", optionList(catalog.TargetAudiences)})
	t.AppendRow(table.Row{"Brand personalities", optionList(catalog.BrandPersonalities)})
	if len(catalog.DomainExtensions) > 0 {
		t.AppendRow(table.Row{"Domain extensions", strings.Join(catalog.DomainExtensions, ", ")})
	}
	return t.Render(), nil
}

func (f *TableFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	if len(entries) == 0 {
		return "(no stored rate limit state)", nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Key", "Count", "Last request", "Expires"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Key,
			e.State.Count,
			e.State.LastRequest.UTC().Format(time.RFC3339),
			e.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return t.Render(), nil
}

func optionList(options []naming.Option) string {
	parts := make([]string, 0, len(options))
	for _, o := range options {
		parts = append(parts, fmt.Sprintf("%s (%s)", o.Label, o.ID))
	}
	return strings.Join(parts, ", ")
}
