package naming

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaCandidates = "schemas/candidates.json"
	schemaScore      = "schemas/score.json"
	schemaTagline    = "schemas/tagline.json"
)

// Issue is a single reason a model response was rejected.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" || i.Field == "(root)" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// ValidationError lists every issue found in a rejected response.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "invalid model response: " + strings.Join(parts, "; ")
}

// Validation is the outcome of parsing and checking one raw model response.
type Validation[T any] struct {
	Value  T
	Issues []Issue
}

// OK reports whether the response passed every check.
func (v Validation[T]) OK() bool {
	return len(v.Issues) == 0
}

// Err returns nil when OK, otherwise a *ValidationError.
func (v Validation[T]) Err() error {
	if v.OK() {
		return nil
	}
	return &ValidationError{Issues: v.Issues}
}

// ParseCandidates strips code fences from raw, parses it as a JSON array and
// checks every candidate against the candidate schema. An empty array is invalid.
func ParseCandidates(raw string) Validation[[]Candidate] {
	return parseAgainst[[]Candidate](raw, schemaCandidates)
}

// ParseScore validates a name-score response.
func ParseScore(raw string) Validation[Score] {
	return parseAgainst[Score](raw, schemaScore)
}

// ParseTaglineBio validates a tagline response. An overlong bio is truncated
// rather than rejected.
func ParseTaglineBio(raw string) Validation[TaglineBio] {
	result := parseAgainst[TaglineBio](raw, schemaTagline)
	if result.OK() {
		result.Value.Tagline = strings.TrimSpace(result.Value.Tagline)
		result.Value.SocialMediaBio = truncateRunes(strings.TrimSpace(result.Value.SocialMediaBio), MaxBioLength)
	}
	return result
}

func parseAgainst[T any](raw string, schemaPath string) Validation[T] {
	var out Validation[T]

	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		out.Issues = []Issue{{Message: "empty response"}}
		return out
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		out.Issues = []Issue{{Message: fmt.Sprintf("response is not valid JSON: %v", err)}}
		return out
	}

	schema, err := compiledSchema(schemaPath)
	if err != nil {
		out.Issues = []Issue{{Message: err.Error()}}
		return out
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		out.Issues = []Issue{{Message: fmt.Sprintf("schema validation error: %v", err)}}
		return out
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			out.Issues = append(out.Issues, Issue{Field: desc.Field(), Message: desc.Description()})
		}
		return out
	}

	if err := json.Unmarshal([]byte(cleaned), &out.Value); err != nil {
		out.Issues = []Issue{{Message: fmt.Sprintf("decode response: %v", err)}}
	}
	return out
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*gojsonschema.Schema{}
)

func compiledSchema(path string) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if schema, ok := schemaCache[path]; ok {
		return schema, nil
	}

	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	schemaCache[path] = schema
	return schema, nil
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}
