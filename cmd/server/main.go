// Package main provides the entry point for the Semantic Scholar MCP server.
//
// The tool surface is served over stdio JSON-RPC; an optional HTTP listener
// exposes health and Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/config"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/mcp"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/observability"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/render"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/semanticscholar"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/server"
	"github.com/yakeworld/mcp-semantic-scholar-server/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging. Logs go to stderr by default; stdout
	// carries the JSON-RPC stream.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("mcp-semantic-scholar-server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics are optional; the client and service tolerate a nil registry.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("semanticscholar_mcp")
	}

	// Semantic Scholar API client.
	client := semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:       cfg.SemanticScholar.BaseURL,
		APIKey:        cfg.SemanticScholar.APIKey,
		Timeout:       cfg.SemanticScholar.Timeout,
		RateLimit:     cfg.SemanticScholar.RateLimit,
		BurstSize:     cfg.SemanticScholar.BurstSize,
		EnrichLimit:   cfg.SemanticScholar.EnrichLimit,
		EnrichWorkers: cfg.SemanticScholar.EnrichWorkers,
	}, nil, logger, metrics)
	if cfg.SemanticScholar.APIKey == "" {
		logger.Warn().Msg("no API key configured, using unauthenticated rate limits")
	}

	renderer := render.New(render.Options{
		MaxListAuthors:     cfg.Render.MaxListAuthors,
		MaxCitationAuthors: cfg.Render.MaxCitationAuthors,
		AbstractTruncate:   cfg.Render.AbstractTruncate,
		MaxNested:          cfg.Render.MaxNested,
	})

	svc := service.New(client, renderer, logger, metrics)
	mcpServer := mcp.NewServer(svc, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start metrics/health HTTP server if configured.
	var metricsServer *server.Server
	if cfg.Metrics.Enabled {
		metricsServer = server.New(cfg.Server, cfg.Metrics, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// Serve MCP over stdio in the background so shutdown signals and
	// metrics-server failures are both observed.
	go func() {
		logger.Info().Msg("serving MCP over stdio")
		errCh <- mcpServer.Serve(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	}

	// Graceful shutdown.
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("mcp-semantic-scholar-server shutdown complete")
	return nil
}
