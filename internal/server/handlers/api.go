package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/checker"
	"github.com/namelens/dentalnames/internal/core/naming"
	apperrors "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/output"
)

const (
	maxBodyBytes     = 64 << 10
	maxDomainLookups = 10
)

// NameGenerator produces validated model output.
type NameGenerator interface {
	Generate(ctx context.Context, req naming.Request) ([]naming.Candidate, error)
	Score(ctx context.Context, req naming.NameScoreRequest) (naming.Score, error)
	Tagline(ctx context.Context, req naming.TaglineRequest) (naming.TaglineBio, error)
}

// DomainLookup checks a name under several extensions.
type DomainLookup interface {
	CheckName(ctx context.Context, name string, extensions []string) ([]core.DomainResult, error)
}

// API serves the /api/v1 endpoints.
type API struct {
	Generator  NameGenerator
	Checker    DomainLookup
	Extensions []string
	Logger     *logging.Logger
}

// DomainsRequest asks for availability of name under Extensions.
type DomainsRequest struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions,omitempty"`
}

// Options returns the selectable form values.
func (a *API) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, naming.Options(a.extensions()))
}

// Names generates candidates. ?sort=score|pronounceability orders them.
func (a *API) Names(w http.ResponseWriter, r *http.Request) {
	sortKey, err := naming.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	var req naming.Request
	if !decodeBody(w, r, &req) {
		return
	}

	candidates, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		a.fail(w, r, "names", err)
		return
	}
	writeJSON(w, http.StatusOK, naming.Sort(candidates, sortKey))
}

// Score rates an existing name.
func (a *API) Score(w http.ResponseWriter, r *http.Request) {
	var req naming.NameScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	score, err := a.Generator.Score(r.Context(), req)
	if err != nil {
		a.fail(w, r, "score", err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// Taglines writes a tagline and bio for a chosen name.
func (a *API) Taglines(w http.ResponseWriter, r *http.Request) {
	var req naming.TaglineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bio, err := a.Generator.Tagline(r.Context(), req)
	if err != nil {
		a.fail(w, r, "taglines", err)
		return
	}
	writeJSON(w, http.StatusOK, bio)
}

// Domains checks availability of a name across extensions.
func (a *API) Domains(w http.ResponseWriter, r *http.Request) {
	var req DomainsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if checker.SanitizeName(req.Name) == "" {
		apperrors.RespondWithError(w, r, validationError(naming.FieldError{Field: "name", Message: "is required"}))
		return
	}

	extensions := req.Extensions
	if len(extensions) == 0 {
		extensions = a.extensions()
	}
	if len(extensions) > maxDomainLookups {
		apperrors.RespondWithError(w, r, validationError(naming.FieldError{
			Field:   "extensions",
			Message: fmt.Sprintf("at most %d extensions", maxDomainLookups),
		}))
		return
	}

	results, err := a.Checker.CheckName(r.Context(), req.Name, extensions)
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Swatch renders a brand palette as PNG from query parameters
// name, primary, accent, background and foreground.
func (a *API) Swatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	palette := naming.ColorPalette{
		Primary:    q.Get("primary"),
		Accent:     q.Get("accent"),
		Background: q.Get("background"),
		Foreground: q.Get("foreground"),
	}

	img, err := output.SwatchImage(q.Get("name"), palette)
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if err := output.EncodePNG(w, img); err != nil && a.Logger != nil {
		a.Logger.Warn("Failed to write swatch", zap.Error(err))
	}
}

func (a *API) extensions() []string {
	if len(a.Extensions) > 0 {
		return a.Extensions
	}
	return checker.DefaultExtensions
}

// fail maps domain errors onto error envelopes.
func (a *API) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var reqErr *naming.RequestError
	var genErr *naming.GenerationError

	switch {
	case errors.As(err, &reqErr):
		apperrors.RespondWithError(w, r, validationError(reqErr.Fields...))
	case errors.As(err, &genErr):
		apperrors.RespondWithError(w, r, apperrors.NewGenerationFailedError(genErr.UserMessage()))
	case errors.Is(err, context.DeadlineExceeded):
		apperrors.RespondWithError(w, r, apperrors.WrapTimeout(r.Context(), err, "The request timed out"))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		if a.Logger != nil {
			a.Logger.Debug("Request canceled", zap.String("operation", operation))
		}
	default:
		if a.Logger != nil {
			a.Logger.Error("Request failed", zap.String("operation", operation), zap.Error(err))
		}
		apperrors.RespondWithError(w, r, apperrors.NewInternalError("An unexpected error occurred"))
	}
}

func validationError(fields ...naming.FieldError) error {
	details := (&naming.RequestError{Fields: fields}).Details()
	return apperrors.NewValidationError("The request is invalid").WithDetails(details)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		message := "Request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			message = "Request body is required"
		} else if strings.HasPrefix(err.Error(), "json: unknown field") {
			message = err.Error()
		}
		apperrors.RespondWithError(w, r, apperrors.NewInvalidInputError(message))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
