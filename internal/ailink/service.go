package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
	"github.com/namelens/dentalnames/internal/ailink/prompt"
)

const (
	defaultTimeout = 60 * time.Second
	maxTimeout     = 5 * time.Minute
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("empty response content")

// Service coordinates prompt rendering, provider selection and driver execution.
type Service struct {
	Providers *Registry
	Registry  prompt.Registry
	Logger    *logging.Logger
}

// NewService builds a service over cfg using the embedded prompts merged with cfg.PromptsDir.
func NewService(cfg Config, logger *logging.Logger) (*Service, error) {
	reg, err := prompt.Open(cfg.PromptsDir)
	if err != nil {
		return nil, err
	}
	return &Service{Providers: NewRegistry(cfg), Registry: reg, Logger: logger}, nil
}

// Invoke renders the prompt named by slug with vars, sends it to the routed
// provider and returns the raw response text.
func (s *Service) Invoke(ctx context.Context, slug string, vars map[string]string) (string, error) {
	if s == nil || s.Providers == nil {
		return "", errors.New("ailink provider registry not configured")
	}
	if s.Registry == nil {
		return "", errors.New("ailink prompt registry not configured")
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", errors.New("prompt slug is required")
	}
	promptDef, err := s.Registry.Get(slug)
	if err != nil {
		return "", err
	}

	systemPrompt, userPrompt, err := promptDef.Render(vars)
	if err != nil {
		return "", err
	}

	resolved, err := s.Providers.Resolve(slug, promptDef, "")
	if err != nil {
		return "", err
	}

	messages := []content.Message{content.TextMessage(content.RoleSystem, systemPrompt)}
	if strings.TrimSpace(userPrompt) != "" {
		messages = append(messages, content.TextMessage(content.RoleUser, userPrompt))
	}

	driverReq := &driver.Request{
		Model:          resolved.Model,
		Messages:       messages,
		ResponseFormat: responseFormat(promptDef.Config.ResponseFormat),
		Temperature:    promptDef.Config.Temperature,
		MaxTokens:      promptDef.Config.MaxTokens,
		PromptSlug:     promptDef.Config.Slug,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	resp, err := resolved.Driver.Complete(ctx, driverReq)
	if err != nil {
		return "", mapProviderError(resolved.ProviderID, err)
	}

	raw := resp.Text()
	s.captureRaw(slug, resolved, raw)
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%s: %w (finish reason %q)", resolved.ProviderID, ErrEmptyResponse, resp.FinishReason)
	}
	return raw, nil
}

func (s *Service) timeout() time.Duration {
	duration := s.Providers.cfg.DefaultTimeout
	if duration <= 0 {
		duration = defaultTimeout
	}
	if duration > maxTimeout {
		duration = maxTimeout
	}
	return duration
}

func responseFormat(format string) *driver.ResponseFormat {
	switch format {
	case prompt.FormatText:
		return nil
	case prompt.FormatJSONArray:
		return &driver.ResponseFormat{Type: driver.FormatJSON, AllowArray: true}
	default:
		return &driver.ResponseFormat{Type: driver.FormatJSON}
	}
}
