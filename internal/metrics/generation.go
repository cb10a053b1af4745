package metrics

import "time"

const (
	GenerationAttemptsTotal = "generation_attempts_total"
	GenerationCallsTotal    = "generation_calls_total"
	GenerationDuration      = "generation_duration_ms"
	RateLimitRejections     = "rate_limit_rejections_total"
	DomainChecksTotal       = "domain_checks_total"
)

// RecordGenerationAttempt counts one failed model attempt by prompt and failure kind.
func RecordGenerationAttempt(prompt, kind string) {
	count(GenerationAttemptsTotal, 1, labels{"prompt": prompt, "kind": kind})
}

// RecordGeneration records a whole generation call, retries included.
func RecordGeneration(prompt string, success bool, d time.Duration) {
	count(GenerationCallsTotal, 1, labels{"prompt": prompt, "status": outcome(success, "success", "exhausted")})
	observe(GenerationDuration, d, labels{"prompt": prompt})
}

func RecordRateLimitRejection(scope string) {
	count(RateLimitRejections, 1, labels{"scope": scope})
}

// RecordDomainCheck counts a lookup by extension, verdict and whether the
// cache answered.
func RecordDomainCheck(extension, status string, cached bool) {
	count(DomainChecksTotal, 1, labels{
		"extension": extension,
		"status":    status,
		"source":    outcome(cached, "cache", "lookup"),
	})
}
