// Package server runs the chat HTTP API and its background scheduler, and
// manages their lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/batepapo/internal/config"
)

// Server represents the chat application and manages its components' lifecycle.
type Server struct {
	logger     *slog.Logger
	cfg        config.ServerConfig
	httpServer *http.Server
	scheduler  *Scheduler
}

// NewServer creates a Server that serves handler on cfg.Addr and runs the
// scheduler alongside it.
func NewServer(logger *slog.Logger, cfg config.ServerConfig, handler http.Handler, scheduler *Scheduler) *Server {
	log := logger.With("component", "server_orchestrator")

	return &Server{
		logger: log,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
		scheduler: scheduler,
	}
}

// Run listens on the configured address and blocks until ctx is cancelled
// or a component fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts all components on ln, handling graceful shutdown on context
// cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting server orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP listener...", "addr", ln.Addr().String())

		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.Info("HTTP listener stopped.")
			return nil
		}

		s.logger.Error("HTTP listener stopped unexpectedly", "error", err)
		return fmt.Errorf("http listener stopped unexpectedly: %w", err)
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("Shutdown signal received, stopping HTTP listener...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Error stopping HTTP listener", "error", err)
			return fmt.Errorf("failed to shut down http listener: %w", err)
		}
		return nil
	})

	if s.scheduler != nil {
		g.Go(func() error {
			s.logger.Info("Starting scheduler...")
			if err := s.scheduler.Start(); err != nil {
				s.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			s.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := s.scheduler.Stop(); err != nil {
				s.logger.Error("Error stopping scheduler", "error", err)
			}

			return nil
		})
	}

	s.logger.Info("Server orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Server orchestrator stopped due to error", "error", err)
		return err
	}

	s.logger.Info("Server orchestrator stopped gracefully.")
	return nil
}
