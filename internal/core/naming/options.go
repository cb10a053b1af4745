package naming

import "strings"

// Option is a selectable value with a display label.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PracticeTypes lists the accepted practice types.
var PracticeTypes = []string{
	"General",
	"Pediatric",
	"Cosmetic",
	"Implant",
	"Orthodontic",
	"Endodontic",
	"Other",
}

var TargetAudiences = []Option{
	{ID: "families", Label: "Families"},
	{ID: "kids", Label: "Kids"},
	{ID: "adults", Label: "Adults"},
	{ID: "seniors", Label: "Seniors"},
	{ID: "professionals", Label: "Professionals"},
	{ID: "high-end", Label: "High-End Clients"},
}

var BrandPersonalities = []Option{
	{ID: "friendly", Label: "Friendly"},
	{ID: "professional", Label: "Professional"},
	{ID: "luxury", Label: "Luxury"},
	{ID: "modern-tech", Label: "Modern/Tech"},
	{ID: "warm", Label: "Warm"},
	{ID: "playful", Label: "Playful"},
}

// Catalog groups every option list for display.
type Catalog struct {
	PracticeTypes      []string `json:"practiceTypes"`
	TargetAudiences    []Option `json:"targetAudiences"`
	BrandPersonalities []Option `json:"brandPersonalities"`
	DomainExtensions   []string `json:"domainExtensions,omitempty"`
}

// Options returns the selectable values together with the given domain extensions.
func Options(domainExtensions []string) Catalog {
	return Catalog{
		PracticeTypes:      PracticeTypes,
		TargetAudiences:    TargetAudiences,
		BrandPersonalities: BrandPersonalities,
		DomainExtensions:   domainExtensions,
	}
}

// labelFor maps a known option id or label to its label. Unknown values are
// returned trimmed so free-form input still reaches the prompt.
func labelFor(options []Option, value string) string {
	value = strings.TrimSpace(value)
	for _, opt := range options {
		if strings.EqualFold(opt.ID, value) || strings.EqualFold(opt.Label, value) {
			return opt.Label
		}
	}
	return value
}

func labels(options []Option, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if label := labelFor(options, v); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func canonicalPracticeType(value string) string {
	value = strings.TrimSpace(value)
	for _, pt := range PracticeTypes {
		if strings.EqualFold(pt, value) {
			return pt
		}
	}
	return value
}
