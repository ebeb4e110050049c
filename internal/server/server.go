// Package server hosts the operational HTTP endpoints: health and Prometheus
// metrics. The MCP tool surface itself runs over stdio; this listener exists
// so the process can be scraped and probed when deployed as a long-running
// sidecar.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/config"
)

// Server is the operational HTTP listener.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New builds the listener from server and metrics configuration.
func New(cfg config.ServerConfig, metricsCfg config.MetricsConfig, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	path := metricsCfg.Path
	if path == "" {
		path = "/metrics"
	}
	r.Handle(path, promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.MetricsAddress(),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger.With().Str("component", "metrics_server").Logger(),
	}
}

// Start begins serving. Blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("metrics server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
