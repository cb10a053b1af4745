package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/core/engine"
	"github.com/namelens/dentalnames/internal/observability"
	"github.com/namelens/dentalnames/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := s.deps.Health
	if health == nil {
		health = handlers.GetHealthManager()
	}
	if health != nil {
		s.router.Get("/health", health.HealthHandler)
		s.router.Get("/health/live", health.LivenessHandler)
		s.router.Get("/health/ready", health.ReadinessHandler)
		s.router.Get("/health/startup", health.StartupHandler)
	} else {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
		s.router.Get("/health/startup", handlers.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if api := s.deps.API; api != nil {
		s.router.Route("/api/v1", func(r chi.Router) {
			if s.deps.CORSOrigin != "" {
				r.Use(cors(s.deps.CORSOrigin))
			}
			r.Get("/options", api.Options)

			r.Group(func(r chi.Router) {
				r.Use(RateLimit(s.deps.Limiter, engine.ScopeBurst))
				r.With(RateLimit(s.deps.Limiter, engine.ScopeDaily)).Post("/names", api.Names)
				r.Post("/names/score", api.Score)
				r.Post("/taglines", api.Taglines)
				r.Post("/domains", api.Domains)
				r.Get("/swatch", api.Swatch)
			})
		})
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint registers POST /admin/signal when an admin token is configured.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger
	if s.deps.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.deps.AdminToken,
		RateLimit: 10, // requests per minute
		RateBurst: 5,
		Manager:   nil, // global manager
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
