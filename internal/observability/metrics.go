package observability

import (
	"fmt"
	"net"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"

	"github.com/namelens/dentalnames/internal/config"
)

var (
	// TelemetrySystem receives every counter, gauge and histogram. Nil disables metrics.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the scrape endpoint on metrics.port.
	PrometheusExporter *exporters.PrometheusExporter
)

// InitMetrics starts the Prometheus exporter on cfg.Port (0 picks a free
// port) and points TelemetrySystem at it. Metric names carry namespace.
func InitMetrics(namespace string, cfg config.MetricsConfig) error {
	port := cfg.Port
	if port < 0 {
		port = 0
	}

	exporter := exporters.NewPrometheusExporter(namespace, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter: %w", err)
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("telemetry system: %w", err)
	}

	PrometheusExporter = exporter
	TelemetrySystem = sys
	return nil
}

// StopMetrics stops the exporter and disables telemetry.
func StopMetrics() error {
	TelemetrySystem = nil
	if PrometheusExporter == nil {
		return nil
	}
	err := PrometheusExporter.Stop()
	PrometheusExporter = nil
	return err
}

// ScrapeURL is the loopback URL of the running exporter, or "" when metrics are off.
func ScrapeURL() string {
	if PrometheusExporter == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(PrometheusExporter.GetAddr())
	if err != nil || port == "" || port == "0" {
		return ""
	}
	return "http://" + net.JoinHostPort("127.0.0.1", port) + "/metrics"
}
