package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/config"
)

func TestInitCLILogger(t *testing.T) {
	require.NoError(t, InitCLILogger("dentalnames-test", true))
	require.NotNil(t, CLILogger)
	CLILogger.Debug("verbose line", zap.String("command", "generate"))
}

func TestInitServerLoggerProfiles(t *testing.T) {
	for _, profile := range []string{"SIMPLE", "STRUCTURED", ""} {
		require.NoError(t, InitServerLogger("dentalnames-test", config.LoggingConfig{Level: "warn", Profile: profile}, "dentalnames"), profile)
		require.NotNil(t, ServerLogger)
		ServerLogger.Warn("probe", zap.String("profile", profile))
	}
}

func TestServerLoggerConfig(t *testing.T) {
	structured := serverLoggerConfig("svc", config.LoggingConfig{Level: "debug", Profile: "STRUCTURED"}, "ns")
	assert.Equal(t, logging.ProfileStructured, structured.Profile)
	assert.Equal(t, "DEBUG", structured.DefaultLevel)
	assert.Equal(t, "ns", structured.StaticFields["namespace"])
	require.Len(t, structured.Sinks, 1)
	assert.Equal(t, "json", structured.Sinks[0].Format)
	require.Len(t, structured.Middleware, 1)
	assert.Equal(t, "correlation", structured.Middleware[0].Name)

	simple := serverLoggerConfig("svc", config.LoggingConfig{Level: "info", Profile: "simple"}, "")
	assert.Equal(t, logging.ProfileSimple, simple.Profile)
	assert.Equal(t, "console", simple.Sinks[0].Format)
	assert.Empty(t, simple.Middleware)
	assert.NotContains(t, simple.StaticFields, "namespace")
}

func TestSeverity(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"loud":    "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, severity(in), in)
	}
}

func TestScrapeURL(t *testing.T) {
	t.Cleanup(func() { PrometheusExporter = nil })

	PrometheusExporter = nil
	assert.Empty(t, ScrapeURL())

	PrometheusExporter = exporters.NewPrometheusExporter("test", ":9464")
	assert.Equal(t, "http://127.0.0.1:9464/metrics", ScrapeURL())
}

func TestStopMetricsWithoutExporter(t *testing.T) {
	PrometheusExporter = nil
	assert.NoError(t, StopMetrics())
	assert.Nil(t, TelemetrySystem)
}
