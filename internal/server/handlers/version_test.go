package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandlerIncludesIdentityMetadata(t *testing.T) {
	SetVersionInfo("1.2.3", "abcd123", "2026-03-07T12:00:00Z")
	SetAppIdentity(&appidentity.Identity{
		BinaryName:  "dentalnames",
		Description: "Brand names for dental practices",
	})
	t.Cleanup(func() {
		SetAppIdentity(nil)
		SetVersionInfo("dev", "unknown", "unknown")
	})

	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "dentalnames", resp.App.Name)
	assert.Equal(t, "Brand names for dental practices", resp.App.Description)
	assert.Equal(t, "1.2.3", resp.App.Version)
	assert.Equal(t, "abcd123", resp.App.Commit)
	assert.Equal(t, "v1", resp.API.Version)
	assert.Contains(t, resp.API.Endpoints, "POST /api/v1/names")
	assert.NotEmpty(t, resp.Dependencies.Gofulmen)
	assert.NotEmpty(t, resp.Dependencies.Crucible)
}

func TestDescribeFallsBackToExecutableName(t *testing.T) {
	SetAppIdentity(nil)
	got := Describe()
	assert.Equal(t, filepath.Base(os.Args[0]), got.App.Name)
	assert.NotEmpty(t, got.App.GoVersion)
}
