package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the database probe behind /api/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such resource")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})

	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.txMiddleware)

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", s.handleListLocations)
				r.Post("/", s.handleCreateLocation)

				r.Route("/{location}", func(r chi.Router) {
					r.Use(s.resolveLocation)
					r.Get("/", s.handleGetLocation)
					r.Put("/", s.handleUpdateLocation)
					r.Delete("/", s.handleDeleteLocation)
					r.Get("/measurements/", s.handleListLocationMeasurements)

					r.Route("/link/sensors/{sensor}", func(r chi.Router) {
						r.Use(s.resolveSensor)
						r.Put("/", s.handleLinkSensor)
						r.Delete("/", s.handleUnlinkSensor)
					})
				})
			})

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", s.handleListSensors)
				r.Post("/", s.handleCreateSensor)

				r.Route("/{sensor}", func(r chi.Router) {
					r.Use(s.resolveSensor)
					r.Get("/", s.handleGetSensor)
					r.Put("/", s.handleUpdateSensor)
					r.Delete("/", s.handleDeleteSensor)
					r.Get("/measurements/", s.handleListSensorMeasurements)
					r.Post("/measurements/", s.handleCreateMeasurement)
				})
			})

			r.Get("/measurements/", s.handleListMeasurements)

			r.Route("/measurement/{measurement}", func(r chi.Router) {
				r.Use(s.resolveMeasurement)
				r.Get("/", s.handleGetMeasurement)
				r.Put("/", s.handleUpdateMeasurement)
				r.Delete("/", s.handleDeleteMeasurement)
			})
		})
	})

	return r
}

// handleHealth reports service status, including database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   ErrCodeUnavailable,
			"version":  s.version,
			"database": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"database": "ok",
	})
}
