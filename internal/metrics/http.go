package metrics

import (
	"strconv"
	"time"
)

const (
	HTTPRequestsTotal   = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_ms"
	HTTPResponseBytes   = "http_response_size_bytes"
	ErrorsTotal         = "errors_total"
	PanicsTotal         = "panics_total"
)

// RecordHTTPRequest records one served request under its route pattern.
func RecordHTTPRequest(method, route string, status int, d time.Duration, responseBytes int64) {
	l := labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
		"class":  strconv.Itoa(status/100) + "xx",
	}
	count(HTTPRequestsTotal, 1, l)
	observe(HTTPRequestDuration, d, l)
	gauge(HTTPResponseBytes, float64(responseBytes), labels{"method": method, "route": route})
}

// RecordError counts an error envelope written to a client.
func RecordError(code string, status int, route string) {
	count(ErrorsTotal, 1, labels{"code": code, "status": strconv.Itoa(status), "route": route})
}

// RecordPanic counts a handler panic turned into a 500.
func RecordPanic(route string) {
	count(PanicsTotal, 1, labels{"route": route})
}
