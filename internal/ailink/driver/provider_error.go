package driver

import (
	"fmt"
	"net/http"
)

// Failure kinds reported by ProviderError.Kind.
const (
	KindAuth        = "auth"
	KindRateLimit   = "rate_limit"
	KindUnavailable = "unavailable"
	KindBadRequest  = "bad_request"
	KindUnknown     = "unknown"
)

// ProviderError is a non-2xx reply from a provider. RawResponse is the reply
// body; it never contains the request's API key.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Kind buckets the status code.
func (e *ProviderError) Kind() string {
	switch s := e.StatusCode; {
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return KindAuth
	case s == http.StatusTooManyRequests:
		return KindRateLimit
	case s >= 500 && s <= 599:
		return KindUnavailable
	case s >= 400 && s <= 499:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// Temporary reports whether repeating the request may succeed.
func (e *ProviderError) Temporary() bool {
	switch e.Kind() {
	case KindRateLimit, KindUnavailable:
		return true
	}
	return e.StatusCode == 0
}
