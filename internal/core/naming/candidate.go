package naming

// ColorPalette holds the four brand colors as hex strings.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// BrandKit pairs typography with a color palette.
type BrandKit struct {
	HeadingFont  string       `json:"headingFont"`
	BodyFont     string       `json:"bodyFont"`
	ColorPalette ColorPalette `json:"colorPalette"`
}

// SEO is the suggested page metadata for a candidate.
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Candidate is one generated business name with its scores and brand assets.
type Candidate struct {
	Name                  string   `json:"name"`
	Rationale             string   `json:"rationale"`
	PronounceabilityScore float64  `json:"pronounceabilityScore"`
	TotalNameScore        float64  `json:"totalNameScore"`
	BrandKit              BrandKit `json:"brandKit"`
	SEO                   SEO      `json:"seo"`
}

// Score is the model's assessment of an existing name.
type Score struct {
	Name                  string  `json:"name"`
	PronounceabilityScore float64 `json:"pronounceabilityScore"`
	SuitabilityScore      float64 `json:"suitabilityScore"`
	Rationale             string  `json:"rationale"`
}

// TaglineBio is a tagline and short social bio for a chosen name.
type TaglineBio struct {
	BusinessName   string `json:"businessName"`
	Tagline        string `json:"tagline"`
	SocialMediaBio string `json:"socialMediaBio"`
}

// MaxBioLength bounds TaglineBio.SocialMediaBio in runes.
const MaxBioLength = 150
