package driver

import (
	"context"

	"github.com/namelens/dentalnames/internal/ailink/content"
)

// Driver defines the interface for text completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "openai", "gemini").
	Name() string
}

// Response formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ResponseFormat specifies the expected response format.
//
// FormatJSON asks the provider for a JSON-only reply where it supports one.
// Drivers whose JSON mode only allows top-level objects fall back to text
// when AllowArray is set.
type ResponseFormat struct {
	Type       string
	AllowArray bool
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model          string
	Messages       []content.Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
	PromptSlug     string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      []content.ContentBlock
	FinishReason string
	Usage        *Usage
}

// Text returns the concatenated text content.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return content.JoinText(r.Content)
}
