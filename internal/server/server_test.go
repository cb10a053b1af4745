package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/core/engine"
	"github.com/namelens/dentalnames/internal/core/naming"
	"github.com/namelens/dentalnames/internal/core/store"
	apperrors "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/server/handlers"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req naming.Request) ([]naming.Candidate, error) {
	return []naming.Candidate{{Name: "Bright Smiles", TotalNameScore: 88}}, nil
}

func (stubGenerator) Score(ctx context.Context, req naming.NameScoreRequest) (naming.Score, error) {
	return naming.Score{Name: req.Name}, nil
}

func (stubGenerator) Tagline(ctx context.Context, req naming.TaglineRequest) (naming.TaglineBio, error) {
	return naming.TaglineBio{BusinessName: req.BusinessName}, nil
}

type stubDomains struct{}

func (stubDomains) CheckName(ctx context.Context, name string, extensions []string) ([]core.DomainResult, error) {
	return nil, nil
}

const namesBody = `{"practiceType": "General", "location": "Leeds", "targetAudience": ["Adults"], "brandPersonality": ["Calm"]}`

func newTestServer(t *testing.T, limits map[string]engine.RateLimit, origin string) (*Server, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	limiter := &engine.RateLimiter{Store: mem}
	limiter.ApplyOverrides(limits)

	srv := New(config.ServerConfig{Host: "127.0.0.1"}, Dependencies{
		API:        &handlers.API{Generator: stubGenerator{}, Checker: stubDomains{}},
		Limiter:    limiter,
		Health:     handlers.NewHealthManager("test"),
		CORSOrigin: origin,
	})
	return srv, mem
}

func post(srv *Server, path, body, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv, _ := newTestServer(t, nil, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/names", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNamesIsDailyLimited(t *testing.T) {
	srv, _ := newTestServer(t, map[string]engine.RateLimit{
		engine.ScopeDaily: {RequestsPerWindow: 2, WindowDuration: 24 * time.Hour},
	}, "")

	for i := 0; i < 2; i++ {
		rec := post(srv, "/api/v1/names", namesBody, "203.0.113.7")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := post(srv, "/api/v1/names", namesBody, "203.0.113.7, 10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.Equal(t, engine.ScopeDaily, body.Error.Details["scope"])

	// Other clients and other endpoints are unaffected by the daily window.
	assert.Equal(t, http.StatusOK, post(srv, "/api/v1/names", namesBody, "198.51.100.1").Code)
	assert.Equal(t, http.StatusOK, post(srv, "/api/v1/names/score", `{"name": "Bright"}`, "203.0.113.7").Code)
}

func TestBurstLimitCoversAPI(t *testing.T) {
	srv, mem := newTestServer(t, map[string]engine.RateLimit{
		engine.ScopeBurst: {RequestsPerWindow: 1, WindowDuration: time.Minute},
	}, "")

	require.Equal(t, http.StatusOK, post(srv, "/api/v1/taglines", `{"businessName": "Bright", "brandPersonality": ["Calm"]}`, "").Code)
	rec := post(srv, "/api/v1/names/score", `{"name": "Bright"}`, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	entries, err := mem.ListRateLimits(context.Background(), store.RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.WindowKey(engine.ScopeBurst, DefaultClientKey), entries[0].Key)

	// Options is never limited.
	optionsRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(optionsRec, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	assert.Equal(t, http.StatusOK, optionsRec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil, "https://example.test")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/names", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil, "")

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/health/startup"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, DefaultClientKey, ClientKey(req))

	req.Header.Set("X-Forwarded-For", " 192.0.2.4 , 10.1.1.1")
	assert.Equal(t, "192.0.2.4", ClientKey(req))

	req.Header.Set("X-Forwarded-For", ",10.1.1.1")
	assert.Equal(t, DefaultClientKey, ClientKey(req))
}
