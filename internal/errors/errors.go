package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/metrics"
	"github.com/namelens/dentalnames/internal/observability"
	"github.com/namelens/dentalnames/internal/server/middleware"
)

// Error codes written to clients.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeTimeout            = "TIMEOUT"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeDatabase           = "DATABASE_ERROR"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInternal           = "INTERNAL_ERROR"
)

type severitySetter func(*errors.ErrorEnvelope) (*errors.ErrorEnvelope, error)

var (
	medium severitySetter = func(e *errors.ErrorEnvelope) (*errors.ErrorEnvelope, error) {
		return e.WithSeverity(errors.SeverityMedium)
	}
	high severitySetter = func(e *errors.ErrorEnvelope) (*errors.ErrorEnvelope, error) {
		return e.WithSeverity(errors.SeverityHigh)
	}
)

type class struct {
	status   int
	severity severitySetter
}

var classes = map[string]class{
	CodeInvalidInput:       {status: http.StatusBadRequest},
	CodeValidationFailed:   {status: http.StatusBadRequest},
	CodeNotFound:           {status: http.StatusNotFound},
	CodeMethodNotAllowed:   {status: http.StatusMethodNotAllowed},
	CodeRateLimited:        {status: http.StatusTooManyRequests},
	CodeTimeout:            {status: http.StatusGatewayTimeout, severity: medium},
	CodeGenerationFailed:   {status: http.StatusServiceUnavailable, severity: medium},
	CodeServiceUnavailable: {status: http.StatusServiceUnavailable, severity: medium},
	CodeExternalService:    {status: http.StatusBadGateway, severity: high},
	CodeDatabase:           {status: http.StatusInternalServerError, severity: high},
	CodeConfigInvalid:      {status: http.StatusInternalServerError, severity: high},
	CodeInternal:           {status: http.StatusInternalServerError, severity: high},
}

// New builds an envelope for code, carrying the code's default severity.
func New(code, message string) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(code, message)
	if c, ok := classes[code]; ok && c.severity != nil {
		if withSeverity, err := c.severity(env); err == nil {
			env = withSeverity
		}
	}
	return env
}

// Wrap builds an envelope for code around err. err's text goes to the
// envelope context, which is logged but never written to clients.
func Wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	env := New(code, message).WithCorrelationID(correlationID(ctx))
	if err == nil {
		return env
	}
	if withContext, cerr := env.WithContext(map[string]interface{}{"wrapped_error": err.Error()}); cerr == nil {
		env = withContext
	}
	return env
}

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return New(CodeInvalidInput, message)
}

func NewValidationError(message string) *errors.ErrorEnvelope {
	return New(CodeValidationFailed, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return New(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return New(CodeMethodNotAllowed, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return New(CodeInternal, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return New(CodeConfigInvalid, message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return New(CodeServiceUnavailable, message)
}

// NewRateLimitedError reports a client that exhausted a window.
func NewRateLimitedError(message string, scope string, retryAfterSeconds int) *errors.ErrorEnvelope {
	return New(CodeRateLimited, message).WithDetails(map[string]interface{}{
		"scope":               scope,
		"retry_after_seconds": retryAfterSeconds,
	})
}

// NewGenerationFailedError reports that the model never produced a usable
// response. Attempt diagnostics are logged by the caller.
func NewGenerationFailedError(message string) *errors.ErrorEnvelope {
	return New(CodeGenerationFailed, message)
}

func WrapTimeout(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeTimeout, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeExternalService, err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeDatabase, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeConfigInvalid, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeInternal, err, message)
}

// correlationID prefers the request id, so client reports match server logs.
func correlationID(ctx context.Context) string {
	if ctx != nil {
		if id := middleware.GetRequestID(ctx); id != "" {
			return id
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into an envelope. Foreign errors become
// INTERNAL_ERROR with their text kept out of the response.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}
	if err == nil {
		return New(CodeInternal, "unexpected nil error")
	}
	return Wrap(context.Background(), CodeInternal, err, "An unexpected error occurred")
}

// HTTPStatusFromCode maps an error code to its response status. Unknown codes are 500.
func HTTPStatusFromCode(code string) int {
	if c, ok := classes[code]; ok {
		return c.status
	}
	return http.StatusInternalServerError
}

// HTTPErrorDetail is the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail as {"error": {...}}.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError writes err as a JSON error envelope, logging it and
// counting it under the matched route.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	envelope := EnsureEnvelope(err)

	if r != nil {
		if id := middleware.GetRequestID(r.Context()); id != "" {
			envelope = envelope.WithCorrelationID(id)
		}
	}
	if envelope.CorrelationID == "" {
		envelope = envelope.WithCorrelationID("fallback-" + errors.GenerateCorrelationID())
	}

	status := HTTPStatusFromCode(envelope.Code)
	route := ""
	if r != nil {
		route = middleware.RoutePattern(r)
	}

	logHTTPError(envelope, status, route)
	metrics.RecordError(envelope.Code, status, route)

	var details map[string]interface{}
	if len(envelope.Details) > 0 {
		details = envelope.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: HTTPErrorDetail{
		Code:      envelope.Code,
		Message:   envelope.Message,
		Details:   details,
		RequestID: envelope.CorrelationID,
	}})
}

func logHTTPError(envelope *errors.ErrorEnvelope, status int, route string) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", status),
		zap.String("route", route),
		zap.String("request_id", envelope.CorrelationID),
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		logger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		logger.Warn(envelope.Message, fields...)
	default:
		logger.Debug(envelope.Message, fields...)
	}
}
