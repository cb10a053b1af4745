package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
)

func request() *driver.Request {
	temp := 0.9
	return &driver.Request{
		Model: "gemini-2.5-flash",
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, "You are a brand name generator."),
			content.TextMessage(content.RoleUser, "Practice Type: General"),
		},
		ResponseFormat: &driver.ResponseFormat{Type: driver.FormatJSON, AllowArray: true},
		Temperature:    &temp,
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "").Complete(context.Background(), request())
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientSendsGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Contains(t, payload, "systemInstruction")
		gen, ok := payload["generationConfig"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "application/json", gen["responseMimeType"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "[{\"name\":"}, {"text": "\"x\"}]"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 6, "totalTokenCount": 10}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), request())
	require.NoError(t, err)
	require.Equal(t, `[{"name":"x"}]`, resp.Text())
	require.Equal(t, "STOP", resp.FinishReason)
	require.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestClientMapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), request())
	require.Error(t, err)

	var providerErr *driver.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	require.True(t, providerErr.Temporary())
}

func TestBuildRequestRequiresUserMessage(t *testing.T) {
	_, _, err := buildRequest(&driver.Request{
		Model:    "m",
		Messages: []content.Message{content.TextMessage(content.RoleSystem, "only system")},
	})
	require.Error(t, err)
}
