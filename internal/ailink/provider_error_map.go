package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/namelens/dentalnames/internal/ailink/driver"
)

// InvokeError classifies a failed provider call.
type InvokeError struct {
	Code     string
	Message  string
	Provider string
	Details  string
	Err      error
}

func (e *InvokeError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

type invokeClass struct {
	code    string
	message string
}

var providerFailures = map[string]invokeClass{
	driver.KindAuth:        {"AILINK_PROVIDER_AUTH", "provider authentication failed"},
	driver.KindRateLimit:   {"AILINK_PROVIDER_RATE_LIMIT", "provider rate limited"},
	driver.KindUnavailable: {"AILINK_PROVIDER_UNAVAILABLE", "provider unavailable"},
	driver.KindBadRequest:  {"AILINK_PROVIDER_BAD_REQUEST", "provider rejected request"},
}

var (
	classTimeout  = invokeClass{"AILINK_PROVIDER_TIMEOUT", "provider request timed out"}
	classCanceled = invokeClass{"AILINK_CANCELED", "request canceled"}
	classGeneric  = invokeClass{"AILINK_PROVIDER_ERROR", "provider request failed"}
)

func mapProviderError(providerID string, err error) *InvokeError {
	if err == nil {
		return nil
	}

	class, details := classGeneric, oneLine(err.Error())
	var perr *driver.ProviderError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		class, details = classTimeout, ""
	case errors.Is(err, context.Canceled):
		class, details = classCanceled, ""
	case errors.As(err, &perr):
		details = oneLine(perr.Message)
		if c, ok := providerFailures[perr.Kind()]; ok {
			class = c
		}
	}

	return &InvokeError{Code: class.code, Message: class.message, Provider: providerID, Details: details, Err: err}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
