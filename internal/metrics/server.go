package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgeobj/dobject-go/config"
)

// Server exposes the metrics registry over HTTP.
type Server struct {
	cfg    config.MetricsConfig
	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates a metrics HTTP server for the given collectors.
func NewServer(cfg config.MetricsConfig, m *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	return &Server{
		cfg:    cfg,
		logger: logger.With("component", "metrics"),
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("metrics server listening", "addr", s.srv.Addr, "path", s.cfg.Path)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
