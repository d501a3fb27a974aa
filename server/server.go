// Package server exposes the file manager over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/util"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and its lifecycle.
type Server struct {
	server       *http.Server
	logger       zerolog.Logger
	shutdownOnce sync.Once
}

// New creates a stopped Server serving handler on cfg.ListenAddr.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          util.NewLogLogger("HTTPServer", util.WarnLevel),
		},
		logger: util.GetLogger("Server"),
	}
}

// Start serves until ctx is cancelled or the listener fails. Cancellation
// triggers a graceful shutdown and Start returns its result.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("Listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
		// ctx is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http server shutdown: %w", err)
			s.logger.Error().Err(err).Msg("Shutdown failed")
			return
		}
		s.logger.Info().Msg("Server stopped")
	})
	return shutdownErr
}
