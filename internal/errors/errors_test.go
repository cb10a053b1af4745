package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeValidationFailed:   http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeGenerationFailed:   http.StatusServiceUnavailable,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeExternalService:    http.StatusBadGateway,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatusFromCode(code), code)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) HTTPErrorResponse {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRespondWithErrorUsesRequestID(t *testing.T) {
	var rec *httptest.ResponseRecorder
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec = w.(*httptest.ResponseRecorder)
		RespondWithError(w, r, NewRateLimitedError("slow down", "daily", 60))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/names", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeRateLimited, body.Error.Code)
	assert.Equal(t, "req-123", body.Error.RequestID)
	assert.Equal(t, "daily", body.Error.Details["scope"])
}

func TestRespondWithErrorHidesForeignErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(rec, req, stderrors.New("dial tcp 10.0.0.1:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Equal(t, "An unexpected error occurred", body.Error.Message)
	assert.Nil(t, body.Error.Details)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestWrapKeepsCauseOutOfDetails(t *testing.T) {
	env := WrapTimeout(context.Background(), context.DeadlineExceeded, "The request timed out")
	assert.Equal(t, CodeTimeout, env.Code)
	assert.Equal(t, context.DeadlineExceeded.Error(), env.Context["wrapped_error"])
	assert.Empty(t, env.Details)
	assert.NotEmpty(t, env.CorrelationID)

	rec := httptest.NewRecorder()
	RespondWithError(rec, httptest.NewRequest(http.MethodGet, "/", nil), env)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Nil(t, decode(t, rec).Error.Details)
}
