package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
)

// Wire shapes for POST /chat/completions.

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *driver.Usage `json:"usage,omitempty"`
}

// errorBody is the error shape shared by OpenAI-compatible gateways.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

var errNoChoices = errors.New("empty response choices")

func encodeRequest(req *driver.Request) (*chatRequest, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, errors.New("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages are required")
	}

	out := &chatRequest{
		Model:       req.Model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	// json_object mode rejects top-level arrays.
	if f := req.ResponseFormat; f != nil && f.Type == driver.FormatJSON && !f.AllowArray {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	for _, msg := range req.Messages {
		for _, block := range msg.Content {
			if block.Type != content.ContentTypeText && block.Type != content.ContentTypeJSON {
				return nil, fmt.Errorf("unsupported content type: %s", block.Type)
			}
		}
		out.Messages = append(out.Messages, chatMessage{Role: msg.Role, Content: content.JoinText(msg.Content)})
	}
	return out, nil
}

func decodeResponse(body []byte) (*driver.Response, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errNoChoices
	}
	first := parsed.Choices[0]
	return &driver.Response{
		Content:      []content.ContentBlock{{Type: content.ContentTypeText, Text: first.Message.Content}},
		FinishReason: first.FinishReason,
		Usage:        parsed.Usage,
	}, nil
}

// errorMessage prefers the structured error message over the raw body.
func errorMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	return strings.TrimSpace(string(body))
}
