package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"video-streamer/internal/metrics"
)

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{w, http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// MetricsConfig holds configuration for the metrics middleware.
type MetricsConfig struct {
	SkipPaths []string
}

// DefaultMetricsConfig skips probes and the metrics endpoint itself.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns middleware recording request counts and latencies.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newMetricsResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// normalizePath collapses per-video segments so metric cardinality stays
// bounded: /api/v1/videos/<uuid>/... becomes /api/v1/videos/{id}/...
func normalizePath(path string) string {
	parts := strings.Split(path, "/")

	for i, part := range parts {
		if part == "" {
			continue
		}
		if i > 0 && (parts[i-1] == "videos" || parts[i-1] == "stream" || parts[i-1] == "range") && looksLikeID(part) {
			parts[i] = "{id}"
		}
		// Rendition directories and segment files collapse too.
		if strings.HasSuffix(part, ".ts") {
			parts[i] = "{segment}"
		}
	}

	return strings.Join(parts, "/")
}

// looksLikeID reports whether a path segment is a video id rather than a
// static route word.
func looksLikeID(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'f') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return false
	}
	return true
}
