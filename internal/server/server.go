package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/handlers"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// New builds the router and HTTP server
func New(cfg *config.Config, handler *handlers.Handler, mw *middleware.Middleware, log *logger.Logger) *Server {
	r := chi.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Security)
	r.Use(mw.BodyLimit)

	r.Get("/health", handler.Health)
	r.Get("/health/live", handler.Live)
	r.Get("/health/ready", handler.Ready)

	// Webhook authenticity is handled inside the handler (signature or
	// write key), so it bypasses the API key middleware.
	r.Post("/webhook/github", handler.GitHubWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimit)

		r.With(mw.RequireWrite).Post("/analyze", handler.Analyze)

		r.With(mw.RequireRead).Get("/recent", handler.Recent)
		r.With(mw.RequireRead).Get("/trends", handler.Trends)
		r.With(mw.RequireRead).Get("/severity", handler.Severity)
		r.With(mw.RequireRead).Get("/findings", handler.Findings)
	})

	// Legacy alias for the analyze route.
	r.With(mw.RateLimit, mw.RequireWrite).Post("/analyze", handler.Analyze)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		log: log,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
