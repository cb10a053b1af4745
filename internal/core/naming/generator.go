package naming

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/metrics"
	"github.com/namelens/dentalnames/internal/retry"
)

// Prompt slugs used by the generator.
const (
	PromptNames   = "dental-names"
	PromptScore   = "name-score"
	PromptTagline = "tagline-bio"
)

// Invoker renders a prompt with vars, sends it to a model and returns the raw text.
type Invoker interface {
	Invoke(ctx context.Context, slug string, vars map[string]string) (string, error)
}

// GenerationError is the terminal failure after every attempt was rejected.
// Error() carries diagnostics; UserMessage is safe to show to end users.
type GenerationError struct {
	Prompt   string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Prompt, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UserMessage is the generic message shown when generation gives up.
func (e *GenerationError) UserMessage() string {
	switch e.Prompt {
	case PromptScore:
		return "Failed to score the name after multiple attempts. Please try again later."
	case PromptTagline:
		return "Failed to generate a tagline after multiple attempts. Please try again later."
	default:
		return "Failed to generate names after multiple attempts. Please try again later."
	}
}

// Generator produces validated model output for names, scores and taglines.
type Generator struct {
	Invoker Invoker
	Policy  retry.Policy
	Logger  *logging.Logger
}

// NewGenerator returns a Generator using the default retry policy.
func NewGenerator(invoker Invoker, logger *logging.Logger) *Generator {
	return &Generator{
		Invoker: invoker,
		Policy:  retry.DefaultPolicy(),
		Logger:  logger,
	}
}

// Generate returns validated name candidates for req.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return invoke(ctx, g, PromptNames, req.Vars(), ParseCandidates)
}

// Score asks the model to rate an existing name.
func (g *Generator) Score(ctx context.Context, req NameScoreRequest) (Score, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Score{}, err
	}
	score, err := invoke(ctx, g, PromptScore, req.Vars(), ParseScore)
	if err != nil {
		return Score{}, err
	}
	score.Name = req.Name
	return score, nil
}

// Tagline writes a tagline and social bio for a chosen name.
func (g *Generator) Tagline(ctx context.Context, req TaglineRequest) (TaglineBio, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return TaglineBio{}, err
	}
	bio, err := invoke(ctx, g, PromptTagline, req.Vars(), ParseTaglineBio)
	if err != nil {
		return TaglineBio{}, err
	}
	bio.BusinessName = req.BusinessName
	return bio, nil
}

func invoke[T any](ctx context.Context, g *Generator, slug string, vars map[string]string, parse func(string) Validation[T]) (T, error) {
	var zero T
	if g == nil || g.Invoker == nil {
		return zero, errors.New("generator is not configured")
	}

	policy := g.Policy
	observe := policy.OnFailure
	policy.OnFailure = func(f retry.Failure) {
		g.logFailure(slug, f)
		metrics.RecordGenerationAttempt(slug, string(f.Kind))
		if observe != nil {
			observe(f)
		}
	}

	started := time.Now()
	value, err := retry.Do(ctx, policy,
		func(ctx context.Context, _ int) (string, error) {
			return g.Invoker.Invoke(ctx, slug, vars)
		},
		func(raw string) retry.Result[T] {
			parsed := parse(raw)
			if !parsed.OK() {
				return retry.Invalid[T](parsed.Err())
			}
			return retry.Valid(parsed.Value)
		},
	)
	metrics.RecordGeneration(slug, err == nil, time.Since(started))
	if err == nil {
		return value, nil
	}

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		return zero, err
	}

	if g.Logger != nil {
		g.Logger.Error("Generation failed after all attempts",
			zap.String("prompt", slug),
			zap.Int("attempts", exhausted.Attempts),
			zap.Duration("backoff_total", exhausted.Elapsed),
			zap.Error(exhausted.Last))
	}
	return zero, &GenerationError{
		Prompt:   slug,
		Attempts: exhausted.Attempts,
		Elapsed:  exhausted.Elapsed,
		Err:      err,
	}
}

func (g *Generator) logFailure(slug string, f retry.Failure) {
	if g.Logger == nil {
		return
	}
	g.Logger.Warn("Generation attempt failed",
		zap.String("prompt", slug),
		zap.Int("attempt", f.Attempt),
		zap.Int("max_attempts", f.MaxAttempts),
		zap.String("kind", string(f.Kind)),
		zap.Duration("delay", f.Delay),
		zap.String("reason", errString(f.Err)))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
