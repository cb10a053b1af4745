package integration

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/observability"
	"github.com/namelens/dentalnames/internal/server"
	"github.com/namelens/dentalnames/internal/server/handlers"
)

// sandboxed reports errors from environments that forbid loopback sockets.
func sandboxed(err error) bool {
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not permitted")
}

type fixture struct {
	url    string
	client *http.Client
}

// start serves the router on 127.0.0.1. withMetrics starts the exporter too.
func start(t *testing.T, withMetrics bool) *fixture {
	t.Helper()
	_ = observability.InitServerLogger("test", config.LoggingConfig{Level: "warn"}, "")

	if withMetrics {
		if err := observability.InitMetrics("test", config.MetricsConfig{Enabled: true}); err != nil {
			if sandboxed(err) {
				t.Skipf("metrics exporter unavailable: %v", err)
			}
			require.NoError(t, err)
		}
		t.Cleanup(func() { _ = observability.StopMetrics() })
	}

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if sandboxed(err) {
		t.Skipf("loopback unavailable: %v", err)
	}
	require.NoError(t, err)

	srv := server.New(config.ServerConfig{Host: "127.0.0.1"}, server.Dependencies{
		API:    &handlers.API{Extensions: []string{".com", ".clinic"}},
		Health: handlers.InitHealthManager("test"),
	})
	ts := &httptest.Server{Listener: listener, Config: &http.Server{Handler: srv.Handler()}}
	ts.Start()
	t.Cleanup(ts.Close)
	return &fixture{url: ts.URL, client: ts.Client()}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.url + path)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

const swatchQuery = "name=Bright+Smile&primary=%230EA5E9&accent=%2314B8A6&background=%23FFFFFF&foreground=%230F172A"

func TestMetricsCoverMixedTraffic(t *testing.T) {
	f := start(t, true)

	traffic := map[string]int{
		"/api/v1/options":                    http.StatusOK,
		"/api/v1/swatch?" + swatchQuery:      http.StatusOK,
		"/api/v1/swatch?name=x&primary=teal": http.StatusBadRequest,
		"/does-not-exist":                    http.StatusNotFound,
		"/health/live":                       http.StatusOK,
	}

	var wg sync.WaitGroup
	for path, want := range traffic {
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := f.client.Get(f.url + path)
				if !assert.NoError(t, err) {
					return
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				assert.Equal(t, want, resp.StatusCode, path)
			}()
		}
	}
	wg.Wait()

	resp, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain; version=0.0.4"), resp.Header.Get("Content-Type"))

	for _, series := range []string{
		"test_http_requests_total",
		"test_http_request_duration_ms",
		"test_errors_total",
	} {
		assert.Contains(t, body, series)
	}
	assert.Contains(t, body, `route="/api/v1/options"`)
	assert.Contains(t, body, `route="unmatched"`)

	samples := 0
	for _, line := range strings.Split(body, "\n") {
		if line != "" && !strings.HasPrefix(line, "#") && len(strings.Fields(line)) >= 2 {
			samples++
		}
	}
	assert.Positive(t, samples)
}

func TestMetricsUnavailableWhenDisabled(t *testing.T) {
	exporter, sys := observability.PrometheusExporter, observability.TelemetrySystem
	observability.PrometheusExporter, observability.TelemetrySystem = nil, nil
	t.Cleanup(func() {
		observability.PrometheusExporter, observability.TelemetrySystem = exporter, sys
	})

	f := start(t, false)

	resp, _ := f.get(t, "/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "SERVICE_UNAVAILABLE")
}
