package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video-streamer/internal/logging"
)

// Server wraps the dedicated metrics HTTP listener.
type Server struct {
	srv *http.Server
}

// NewServer creates the metrics server on the given port. It serves
// /metrics only; the main listener never exposes Prometheus data.
func NewServer(port string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start runs the listener until Shutdown is called. Intended to be called
// in a goroutine.
func (s *Server) Start() {
	logging.Info("Metrics server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server error: %v", err)
	}
}

// Shutdown stops the metrics listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
