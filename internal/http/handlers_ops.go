package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once templates are parsed and the store loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.expenses.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	uptime := time.Since(s.started)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_average_microseconds Mean response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_average_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_average_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	if stats, ok := s.charts.(interface{ CacheStats() (uint64, uint64, int) }); ok {
		hits, misses, size := stats.CacheStats()
		fmt.Fprintf(w, "# HELP chart_cache_hits_total Chart render cache hits\n")
		fmt.Fprintf(w, "# TYPE chart_cache_hits_total counter\n")
		fmt.Fprintf(w, "chart_cache_hits_total %d\n\n", hits)

		fmt.Fprintf(w, "# HELP chart_cache_misses_total Chart render cache misses\n")
		fmt.Fprintf(w, "# TYPE chart_cache_misses_total counter\n")
		fmt.Fprintf(w, "chart_cache_misses_total %d\n\n", misses)

		fmt.Fprintf(w, "# HELP chart_cache_entries Current chart cache entries\n")
		fmt.Fprintf(w, "# TYPE chart_cache_entries gauge\n")
		fmt.Fprintf(w, "chart_cache_entries %d\n\n", size)
	}

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}
