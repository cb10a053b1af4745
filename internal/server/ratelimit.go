package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/core/engine"
	apperrors "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/observability"
)

// DefaultClientKey is used when a request carries no X-Forwarded-For header.
const DefaultClientKey = "127.0.0.1"

var rateLimitMessages = map[string]string{
	engine.ScopeBurst: "Too many requests. Please wait a minute and try again.",
	engine.ScopeDaily: "Daily generation limit reached. Please try again tomorrow.",
}

// ClientKey identifies the caller by the first X-Forwarded-For entry.
func ClientKey(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if first, _, _ := strings.Cut(forwarded, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return DefaultClientKey
}

// RateLimit admits requests through limiter under scope. Store failures let
// the request through.
func RateLimit(limiter *engine.RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), scope, ClientKey(r))
			if err != nil {
				if logger := observability.ServerLogger; logger != nil {
					logger.Warn("Rate limit check failed",
						zap.String("scope", scope),
						zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			message, ok := rateLimitMessages[scope]
			if !ok {
				message = "Too many requests. Please try again later."
			}
			apperrors.RespondWithError(w, r, apperrors.NewRateLimitedError(message, scope, retryAfter))
		})
	}
}
