package metrics

import "time"

const (
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
	ServerStartTime     = "app_server_start_time_seconds"
	RateLimitResets     = "rate_limit_resets_total"
)

// RecordHealthCheck records one run of a named readiness check.
func RecordHealthCheck(check string, healthy bool, d time.Duration) {
	count(HealthCheckTotal, 1, labels{"check": check, "status": outcome(healthy, "healthy", "unhealthy")})
	observe(HealthCheckDuration, d, labels{"check": check})
}

// SetServerStartTime publishes the serve start as a Unix timestamp.
func SetServerStartTime(unix int64) {
	gauge(ServerStartTime, float64(unix), nil)
}

// RecordRateLimitReset counts windows an operator removed.
func RecordRateLimitReset(store string, removed int64) {
	count(RateLimitResets, float64(removed), labels{"store": store})
}
