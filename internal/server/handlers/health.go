package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/namelens/dentalnames/internal/errors"
	"github.com/namelens/dentalnames/internal/metrics"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthManager runs registered checks for the health probes. Checks named
// in optional only degrade the aggregate status when they fail.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	optional map[string]bool
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		optional: make(map[string]bool),
		version:  version,
	}
}

// RegisterChecker registers a check whose failure makes the service unhealthy.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
	delete(hm.optional, name)
}

// RegisterOptionalChecker registers a check whose failure only degrades the service.
func (hm *HealthManager) RegisterOptionalChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
	hm.optional[name] = true
}

// runHealthChecks runs every check concurrently. A check still running when
// ctx ends is reported as "timeout".
func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]HealthChecker, len(names))
	optional := make([]bool, len(names))
	for i, name := range names {
		checkers[i] = hm.checkers[name]
		optional[i] = hm.optional[name]
	}
	hm.mu.RUnlock()

	type outcome struct {
		idx    int
		status string
	}
	done := make(chan outcome, len(names))
	for i := range names {
		go func(i int) {
			started := time.Now()
			err := checkers[i].CheckHealth(ctx)
			metrics.RecordHealthCheck(names[i], err == nil, time.Since(started))
			status := "healthy"
			if err != nil {
				status = "unhealthy"
				if optional[i] {
					status = "degraded"
				}
			}
			done <- outcome{idx: i, status: status}
		}(i)
	}

	checks := make(map[string]string, len(names))
	for range names {
		select {
		case out := <-done:
			checks[names[out.idx]] = out.status
		case <-ctx.Done():
			for _, name := range names {
				if _, ok := checks[name]; !ok {
					checks[name] = "timeout"
				}
			}
			return checks
		}
	}
	return checks
}

// determineOverallStatus determines overall health status
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		if status == "unhealthy" {
			return "unhealthy"
		}
		if status == "degraded" || status == "timeout" {
			degraded = true
		}
	}
	if degraded {
		return "degraded"
	}
	return "healthy"
}

func (hm *HealthManager) evaluate(r *http.Request, timeout time.Duration) (string, map[string]string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	checks := hm.runHealthChecks(ctx)
	return hm.determineOverallStatus(checks), checks
}

// HealthHandler handles aggregate health check requests
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status, checks := hm.evaluate(r, 5*time.Second)
	if status == "unhealthy" {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "aggregate health check failed")
		apperrors.RespondWithError(w, r, enrichHealthEnvelope(envelope, "", status, checks))
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler reports whether the process is running. It runs no checks:
// a failing dependency should not get the process restarted.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProbeResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// ReadinessHandler reports whether the service can take traffic.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "ready", 5*time.Second)
}

// StartupHandler reports whether initialization has completed.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "startup", 3*time.Second)
}

func (hm *HealthManager) probe(w http.ResponseWriter, r *http.Request, name string, timeout time.Duration) {
	status, checks := hm.evaluate(r, timeout)
	if status == "unhealthy" {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", name+" probe failed")
		apperrors.RespondWithError(w, r, enrichHealthEnvelope(envelope, name, status, checks))
		return
	}
	writeJSON(w, http.StatusOK, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]interface{}{
		"status": status,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if probe != "" {
		details["probe"] = probe
	}
	envelope = envelope.WithDetails(details)

	var unhealthy []string
	for name, result := range checks {
		if result != "healthy" {
			unhealthy = append(unhealthy, name)
		}
	}
	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		envelope, _ = envelope.WithContext(map[string]interface{}{"unhealthy_checks": unhealthy})
	}
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager initializes the global health manager
func InitHealthManager(version string) *HealthManager {
	globalHealthManager = NewHealthManager(version)
	return globalHealthManager
}

// GetHealthManager returns the global health manager
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func uninitialized(probe string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
		apperrors.RespondWithError(w, r, enrichHealthEnvelope(envelope, probe, "unknown", nil))
	}
}

// Package-level probe handlers used before a manager is wired.
var (
	HealthHandler    = uninitialized("aggregate")
	LivenessHandler  = uninitialized("live")
	ReadinessHandler = uninitialized("ready")
	StartupHandler   = uninitialized("startup")
)
