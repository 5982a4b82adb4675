package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// metricsMiddleware records request counts and latencies per route.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		s.metrics.GetOrCreateCounter(fmt.Sprintf(
			`mokkiwahti_http_requests_total{method=%q,route=%q,status="%s"}`,
			r.Method, route, strconv.Itoa(wrapped.status),
		)).Inc()
		s.metrics.GetOrCreateHistogram(fmt.Sprintf(
			`mokkiwahti_http_request_duration_seconds{method=%q,route=%q}`,
			r.Method, route,
		)).UpdateDuration(start)
	})
}

// measurementStored counts measurements committed through the given source.
func measurementStored(source string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`mokkiwahti_measurements_stored_total{source=%q}`, source)).Inc()
}

// handleMetrics exposes HTTP, domain and process metrics in Prometheus
// text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.WritePrometheus(w)
	metrics.WritePrometheus(w, true)
}
