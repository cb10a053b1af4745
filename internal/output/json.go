package output

import (
	"encoding/json"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatCandidates(candidates []naming.Candidate) (string, error) {
	if candidates == nil {
		candidates = []naming.Candidate{}
	}
	return f.marshal(candidates)
}

func (f *JSONFormatter) FormatScore(score naming.Score) (string, error) {
	return f.marshal(score)
}

func (f *JSONFormatter) FormatTagline(bio naming.TaglineBio) (string, error) {
	return f.marshal(bio)
}

func (f *JSONFormatter) FormatDomains(results []core.DomainResult) (string, error) {
	if results == nil {
		results = []core.DomainResult{}
	}
	return f.marshal(results)
}

func (f *JSONFormatter) FormatOptions(catalog naming.Catalog) (string, error) {
	return f.marshal(catalog)
}

func (f *JSONFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	if entries == nil {
		entries = []store.RateLimitEntry{}
	}
	return f.marshal(entries)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
