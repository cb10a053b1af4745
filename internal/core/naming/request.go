package naming

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxNameLength applies when a request leaves MaxNameLength unset.
const DefaultMaxNameLength = 30

// Request is the structured input for one name generation.
type Request struct {
	PracticeType     string   `json:"practiceType" validate:"required,oneof=General Pediatric Cosmetic Implant Orthodontic Endodontic Other"`
	Location         string   `json:"location" validate:"required,min=2"`
	Country          string   `json:"country,omitempty"`
	TargetAudience   []string `json:"targetAudience" validate:"min=1,dive,required"`
	BrandPersonality []string `json:"brandPersonality" validate:"min=1,dive,required"`
	MustIncludeWords string   `json:"mustIncludeWords,omitempty"`
	WordsToAvoid     string   `json:"wordsToAvoid,omitempty"`
	MaxNameLength    int      `json:"maxNameLength,omitempty" validate:"gt=0"`
	IncludeOwnerName bool     `json:"includeOwnerName,omitempty"`
	OwnerName        string   `json:"ownerName,omitempty" validate:"required_if=IncludeOwnerName true"`
}

// NameScoreRequest asks for a score of an existing name.
type NameScoreRequest struct {
	Name             string   `json:"name" validate:"required"`
	PracticeType     string   `json:"practiceType,omitempty"`
	Location         string   `json:"location,omitempty"`
	TargetAudience   []string `json:"targetAudience,omitempty"`
	BrandPersonality []string `json:"brandPersonality,omitempty"`
	MustIncludeWords string   `json:"mustIncludeWords,omitempty"`
	WordsToAvoid     string   `json:"wordsToAvoid,omitempty"`
}

// TaglineRequest asks for a tagline and bio for a chosen name.
type TaglineRequest struct {
	BusinessName     string   `json:"businessName" validate:"required"`
	BrandPersonality []string `json:"brandPersonality" validate:"min=1,dive,required"`
}

// FieldError is a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestError lists invalid request fields.
type RequestError struct {
	Fields []FieldError
}

func (e *RequestError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Details returns the field errors keyed by field name.
func (e *RequestError) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Normalize trims fields, canonicalizes the practice type and applies defaults.
func (r Request) Normalize() Request {
	r.PracticeType = canonicalPracticeType(r.PracticeType)
	r.Location = strings.TrimSpace(r.Location)
	r.Country = strings.TrimSpace(r.Country)
	r.TargetAudience = trimAll(r.TargetAudience)
	r.BrandPersonality = trimAll(r.BrandPersonality)
	r.MustIncludeWords = strings.TrimSpace(r.MustIncludeWords)
	r.WordsToAvoid = strings.TrimSpace(r.WordsToAvoid)
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	if r.MaxNameLength == 0 {
		r.MaxNameLength = DefaultMaxNameLength
	}
	if !r.IncludeOwnerName {
		r.OwnerName = ""
	}
	return r
}

// Validate checks a normalized request.
func (r Request) Validate() error {
	return structError(validate.Struct(r))
}

// Vars renders the request as prompt variables.
func (r Request) Vars() map[string]string {
	location := r.Location
	if r.Country != "" {
		location = location + ", " + r.Country
	}
	vars := map[string]string{
		"practice_type":      r.PracticeType,
		"location":           location,
		"target_audience":    strings.Join(labels(TargetAudiences, r.TargetAudience), ", "),
		"brand_personality":  strings.Join(labels(BrandPersonalities, r.BrandPersonality), ", "),
		"must_include_words": r.MustIncludeWords,
		"words_to_avoid":     r.WordsToAvoid,
		"max_name_length":    "",
		"include_owner_name": "",
		"owner_name":         r.OwnerName,
	}
	if r.MaxNameLength > 0 {
		vars["max_name_length"] = strconv.Itoa(r.MaxNameLength)
	}
	if r.IncludeOwnerName {
		vars["include_owner_name"] = "true"
	}
	return vars
}

func (r NameScoreRequest) Normalize() NameScoreRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.PracticeType = canonicalPracticeType(r.PracticeType)
	r.Location = strings.TrimSpace(r.Location)
	r.TargetAudience = trimAll(r.TargetAudience)
	r.BrandPersonality = trimAll(r.BrandPersonality)
	r.MustIncludeWords = strings.TrimSpace(r.MustIncludeWords)
	r.WordsToAvoid = strings.TrimSpace(r.WordsToAvoid)
	return r
}

func (r NameScoreRequest) Validate() error {
	return structError(validate.Struct(r))
}

func (r NameScoreRequest) Vars() map[string]string {
	return map[string]string{
		"name":               r.Name,
		"practice_type":      r.PracticeType,
		"location":           r.Location,
		"target_audience":    strings.Join(labels(TargetAudiences, r.TargetAudience), ", "),
		"brand_personality":  strings.Join(labels(BrandPersonalities, r.BrandPersonality), ", "),
		"must_include_words": r.MustIncludeWords,
		"words_to_avoid":     r.WordsToAvoid,
	}
}

func (r TaglineRequest) Normalize() TaglineRequest {
	r.BusinessName = strings.TrimSpace(r.BusinessName)
	r.BrandPersonality = trimAll(r.BrandPersonality)
	return r
}

func (r TaglineRequest) Validate() error {
	return structError(validate.Struct(r))
}

func (r TaglineRequest) Vars() map[string]string {
	return map[string]string{
		"business_name":     r.BusinessName,
		"brand_personality": strings.Join(labels(BrandPersonalities, r.BrandPersonality), ", "),
	}
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &RequestError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldName(fe), Message: fieldMessage(fe)})
	}
	return out
}

// fieldName drops the struct prefix and any slice index.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when the owner name is included"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("select at least %s", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gt":
		return "must be a positive number"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
