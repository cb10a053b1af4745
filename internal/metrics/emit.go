// Package metrics names the service's Prometheus series and records them on
// the process telemetry system. Every Record call is a no-op while metrics
// are disabled.
package metrics

import (
	"time"

	"github.com/namelens/dentalnames/internal/observability"
)

type labels = map[string]string

func count(name string, n float64, l labels) {
	if sys := observability.TelemetrySystem; sys != nil && n > 0 {
		_ = sys.Counter(name, n, l)
	}
}

func observe(name string, d time.Duration, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, l)
	}
}

func gauge(name string, v float64, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, v, l)
	}
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
