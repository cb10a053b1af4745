package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
)

// Client implements the driver over the Google Gen AI SDK (Gemini API backend).
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration

	once   sync.Once
	sdk    *genai.Client
	sdkErr error
}

// NewClient returns a Gemini client. baseURL may be empty.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: strings.TrimSpace(baseURL),
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     c.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.HTTPClient,
		}
		if c.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
		}
		c.sdk, c.sdkErr = genai.NewClient(ctx, cfg)
	})
	return c.sdk, c.sdkErr
}

// Complete sends a generateContent request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	contents, config, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	sdk, err := c.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := sdk.Models.GenerateContent(ctx, req.Model, contents, config)
	trace := driver.TraceEntry{Driver: c.Name(), Model: req.Model, PromptSlug: req.PromptSlug, DurationMs: time.Since(started).Milliseconds()}
	if err != nil {
		trace.Error = err.Error()
		driver.Trace(trace)
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &driver.ProviderError{Provider: c.Name(), StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if raw, mErr := json.Marshal(resp); mErr == nil {
		trace.Response = raw
	}
	driver.Trace(trace)

	return toDriverResponse(resp)
}

func buildRequest(req *driver.Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	if len(req.Messages) == 0 {
		return nil, nil, fmt.Errorf("messages are required")
	}

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	var system []string

	for _, msg := range req.Messages {
		text := content.JoinText(msg.Content)
		switch msg.Role {
		case content.RoleSystem:
			system = append(system, text)
		case content.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("at least one user message is required")
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(*req.MaxTokens) // #nosec G115 -- bounded by config
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == driver.FormatJSON {
		config.ResponseMIMEType = "application/json"
	}

	return contents, config, nil
}

func toDriverResponse(resp *genai.GenerateContentResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("response blocked by safety filters")
	}

	out := &driver.Response{FinishReason: string(candidate.FinishReason)}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			out.Content = append(out.Content, content.ContentBlock{Type: content.ContentTypeText, Text: part.Text})
		}
	}
	if len(out.Content) == 0 {
		return nil, fmt.Errorf("empty response content")
	}

	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = &driver.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return out, nil
}
