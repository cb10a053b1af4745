package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
)

func userRequest(format *driver.ResponseFormat) *driver.Request {
	return &driver.Request{
		Model: "test-model",
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, "sys"),
			content.TextMessage(content.RoleUser, "usr"),
		},
		ResponseFormat: format,
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), userRequest(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientSendsRequestAndParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "test-model", payload["model"])
		require.Equal(t, map[string]any{"type": "json_object"}, payload["response_format"])

		messages := payload["messages"].([]any)
		require.Len(t, messages, 2)
		require.Equal(t, "usr", messages[1].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"tagline\":\"ok\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), userRequest(&driver.ResponseFormat{Type: driver.FormatJSON}))
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 3, resp.Usage.TotalTokens)
	require.Equal(t, `{"tagline":"ok"}`, resp.Text())
}

func TestClientOmitsJSONModeForArrays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, hasFormat := payload["response_format"]
		require.False(t, hasFormat)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), userRequest(&driver.ResponseFormat{Type: driver.FormatJSON, AllowArray: true}))
	require.NoError(t, err)
	require.Equal(t, "[]", resp.Text())
}

func TestClientErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "nope")

	var providerErr *driver.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.False(t, providerErr.Temporary())
}

func TestClientErrorsOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty response choices")
}

func TestClientUsesStructuredErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), userRequest(nil))
	var providerErr *driver.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "Rate limit reached", providerErr.Message)
	require.True(t, providerErr.Temporary())
	require.Equal(t, driver.KindRateLimit, providerErr.Kind())
}

func TestEncodeRequestRejectsImages(t *testing.T) {
	req := userRequest(nil)
	req.Messages[1].Content = append(req.Messages[1].Content, content.ContentBlock{Type: "image"})
	_, err := encodeRequest(req)
	require.ErrorContains(t, err, "unsupported content type")
}
