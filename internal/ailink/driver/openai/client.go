// Package openai talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, OpenRouter, Groq, local gateways) over plain HTTP.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/namelens/dentalnames/internal/ailink/driver"
)

const defaultBaseURL = "https://api.openai.com/v1"

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 4 << 20

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	c := &Client{BaseURL: strings.TrimSpace(baseURL), APIKey: strings.TrimSpace(apiKey)}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	return c
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, errors.New("openai client not configured")
	}
	if c.APIKey == "" {
		return nil, errors.New("api key is required")
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	trace := driver.TraceEntry{Driver: c.Name(), Model: payload.Model, PromptSlug: req.PromptSlug, Request: body}
	status, respBody, err := c.post(ctx, "/chat/completions", body, &trace)
	driver.Trace(trace)
	if err != nil {
		return nil, err
	}

	if status/100 != 2 {
		return nil, &driver.ProviderError{
			Provider:    c.Name(),
			StatusCode:  status,
			Message:     errorMessage(respBody),
			RawResponse: respBody,
		}
	}
	return decodeResponse(respBody)
}

// post sends body and fills in the trace's outcome fields.
func (c *Client) post(ctx context.Context, path string, body []byte, trace *driver.TraceEntry) (int, []byte, error) {
	started := time.Now()
	defer func() { trace.DurationMs = time.Since(started).Milliseconds() }()

	url := strings.TrimRight(c.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		trace.Error = err.Error()
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	trace.StatusCode = resp.StatusCode
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		trace.Error = err.Error()
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	if json.Valid(respBody) {
		trace.Response = respBody
	}
	return resp.StatusCode, respBody, nil
}
