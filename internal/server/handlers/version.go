package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
)

// APIVersion is the path prefix of the JSON API.
const APIVersion = "v1"

var apiEndpoints = []string{
	"GET /api/v1/options",
	"POST /api/v1/names",
	"POST /api/v1/names/score",
	"POST /api/v1/taglines",
	"POST /api/v1/domains",
	"GET /api/v1/swatch",
}

var (
	buildMu  sync.RWMutex
	build    = AppInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	identity *appidentity.Identity
)

// SetVersionInfo records the ldflags-injected build stamp.
func SetVersionInfo(version, commit, buildDate string) {
	buildMu.Lock()
	defer buildMu.Unlock()
	build.Version, build.Commit, build.BuildDate = version, commit, buildDate
}

// SetAppIdentity names the binary in version reports. nil falls back to argv[0].
func SetAppIdentity(id *appidentity.Identity) {
	buildMu.Lock()
	defer buildMu.Unlock()
	identity = id
}

type VersionResponse struct {
	App          AppInfo     `json:"app"`
	API          APIInfo     `json:"api"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
}

type AppInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Commit      string `json:"git_commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version,omitempty"`
}

type APIInfo struct {
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// Describe reports the running binary. Both GET /version and
// `version --json` render it.
func Describe() VersionResponse {
	buildMu.RLock()
	app, id := build, identity
	buildMu.RUnlock()

	app.GoVersion = runtime.Version()
	if id != nil {
		app.Name, app.Description = id.BinaryName, id.Description
	}
	if app.Name == "" {
		app.Name = "unknown"
		if len(os.Args) > 0 && os.Args[0] != "" {
			app.Name = filepath.Base(os.Args[0])
		}
	}

	deps := crucible.GetVersion()
	return VersionResponse{
		App:          app,
		API:          APIInfo{Version: APIVersion, Endpoints: apiEndpoints},
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	}
}

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Describe())
}
