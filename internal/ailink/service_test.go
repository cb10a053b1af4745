package ailink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/ailink/content"
	"github.com/namelens/dentalnames/internal/ailink/driver"
	"github.com/namelens/dentalnames/internal/ailink/prompt"
)

type recordingDriver struct {
	name  string
	reply string
	err   error
	req   *driver.Request
}

func (d *recordingDriver) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	d.req = req
	if d.err != nil {
		return nil, d.err
	}
	return &driver.Response{Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: d.reply}}, FinishReason: "stop"}, nil
}

func (d *recordingDriver) Name() string { return d.name }

func newTestService(t *testing.T, drv driver.Driver) *Service {
	t.Helper()
	reg, err := prompt.DefaultRegistry()
	require.NoError(t, err)

	providers := NewRegistry(Config{
		DefaultProvider: "p",
		Providers: map[string]ProviderInstanceConfig{
			"p": {Enabled: true, AIProvider: "openai", Models: map[string]string{"default": "m"}, Credentials: []CredentialConfig{{APIKey: "k"}}},
		},
	})
	providers.factories = map[string]driverFactory{
		"openai": func(string, string, time.Duration) driver.Driver { return drv },
	}
	return &Service{Providers: providers, Registry: reg}
}

func TestServiceInvokeRendersPromptAndFormat(t *testing.T) {
	drv := &recordingDriver{name: "openai", reply: `[{"name":"x"}]`}
	svc := newTestService(t, drv)

	raw, err := svc.Invoke(context.Background(), "dental-names", map[string]string{
		"practice_type":     "General",
		"location":          "Austin",
		"target_audience":   "Families",
		"brand_personality": "Modern",
	})
	require.NoError(t, err)
	require.Equal(t, `[{"name":"x"}]`, raw)

	require.NotNil(t, drv.req)
	require.Equal(t, "m", drv.req.Model)
	require.Equal(t, "dental-names", drv.req.PromptSlug)
	require.Len(t, drv.req.Messages, 2)
	require.Equal(t, content.RoleSystem, drv.req.Messages[0].Role)
	require.Contains(t, content.JoinText(drv.req.Messages[1].Content), "Location: Austin")
	require.NotNil(t, drv.req.ResponseFormat)
	require.True(t, drv.req.ResponseFormat.AllowArray)
	require.NotNil(t, drv.req.Temperature)
}

func TestServiceInvokeRequiresVariables(t *testing.T) {
	drv := &recordingDriver{name: "openai", reply: "{}"}
	svc := newTestService(t, drv)

	_, err := svc.Invoke(context.Background(), "name-score", map[string]string{})
	require.Error(t, err)
	require.Nil(t, drv.req)
}

func TestServiceInvokeEmptyAndProviderErrors(t *testing.T) {
	drv := &recordingDriver{name: "openai", reply: "  "}
	svc := newTestService(t, drv)

	_, err := svc.Invoke(context.Background(), "name-score", map[string]string{"name": "Tooth Haven"})
	require.ErrorIs(t, err, ErrEmptyResponse)

	drv.err = &driver.ProviderError{Provider: "openai", StatusCode: 500, Message: "down"}
	_, err = svc.Invoke(context.Background(), "name-score", map[string]string{"name": "Tooth Haven"})
	var invokeErr *InvokeError
	require.ErrorAs(t, err, &invokeErr)
	require.Equal(t, "AILINK_PROVIDER_UNAVAILABLE", invokeErr.Code)
}

func TestServiceUnknownPrompt(t *testing.T) {
	svc := newTestService(t, &recordingDriver{name: "openai"})
	_, err := svc.Invoke(context.Background(), "nope", nil)
	require.Error(t, err)
}
