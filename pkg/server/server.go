// Package server assembles the HTTP surface: routing, the middleware
// chain, and graceful lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"openbricks/gateway/pkg/config"
	"openbricks/gateway/pkg/gateway/handlers"
	"openbricks/gateway/pkg/gateway/middleware"
	"openbricks/gateway/pkg/telemetry/metrics"
)

// Server is the gateway HTTP server.
type Server struct {
	cfg      config.ServerConfig
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
	srv      *http.Server
}

// New builds a server serving the given endpoint set. m may be nil, in
// which case no scrape endpoint is mounted.
func New(cfg config.ServerConfig, h *handlers.Handlers, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		handlers: h,
		metrics:  m,
	}

	s.srv = &http.Server{
		Addr:           cfg.ListenAddress,
		Handler:        s.buildHandler(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	return s
}

// buildHandler mounts the routes and wraps them in the middleware chain.
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/models", s.handlers.Models)
	mux.HandleFunc("POST /v1/chat/completions", s.handlers.ChatCompletions)
	mux.HandleFunc("POST /v1/completions", s.handlers.Completions)
	mux.HandleFunc("POST /v1/embeddings", s.handlers.Embeddings)
	mux.HandleFunc("GET /healthcheck", s.handlers.Health)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Timeout(s.cfg.RequestTimeout)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		Enabled:        s.cfg.CORS.Enabled,
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: s.cfg.CORS.AllowedMethods,
		AllowedHeaders: s.cfg.CORS.AllowedHeaders,
		MaxAge:         s.cfg.CORS.MaxAge,
	})(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)
	return handler
}

// Handler exposes the assembled handler, used by integration tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is cancelled or a termination signal arrives,
// then shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "address", s.cfg.ListenAddress)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
