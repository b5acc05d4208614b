// Package server exposes the document processing pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/surgiscan/docproc/internal/config"
	"github.com/surgiscan/docproc/internal/metrics"
	"github.com/surgiscan/docproc/internal/processor"
	"github.com/surgiscan/docproc/internal/storage"
	"github.com/surgiscan/docproc/internal/store"
)

// Server is the docproc HTTP server. It owns the listener only; the
// pipeline, store and file storage are injected and shared.
type Server struct {
	httpServer *http.Server
	processor  *processor.Processor
	store      *store.Store
	files      *storage.Manager
	metrics    *metrics.Metrics
	cfg        *config.Config
	logger     *slog.Logger
}

// Config holds server wiring.
type Config struct {
	Processor *processor.Processor
	Store     *store.Store
	Files     *storage.Manager
	Metrics   *metrics.Metrics
	AppConfig *config.Config
	Logger    *slog.Logger
}

// New creates a Server and registers all routes.
func New(cfg Config) (*Server, error) {
	if cfg.Processor == nil || cfg.Store == nil || cfg.Files == nil {
		return nil, errors.New("server requires processor, store and file storage")
	}
	if cfg.AppConfig == nil {
		cfg.AppConfig = config.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		processor: cfg.Processor,
		store:     cfg.Store,
		files:     cfg.Files,
		metrics:   cfg.Metrics,
		cfg:       cfg.AppConfig,
		logger:    cfg.Logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.AppConfig.Server.Host, strconv.Itoa(cfg.AppConfig.Server.Port)),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Start runs the listener until ctx is canceled, then drains in-flight
// requests and pipeline work.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.processor.Cleanup()
	return nil
}
