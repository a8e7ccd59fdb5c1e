package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/auth"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/github"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/handlers"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/middleware"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/policy"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/server"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/service"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/storage"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("starting PR risk gate")

	db, err := storage.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", err)
		}
	}()

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	store := storage.NewStore(db, cfg.Storage, log)
	keys := auth.NewKeyStore(cfg.Security.APIKeysJSON)
	policies := policy.NewEngine(cfg.Security.PoliciesJSON)
	ghClient := github.NewClient(cfg.GitHub)

	if !keys.Enabled() {
		log.Warn("no API keys configured, authentication is disabled")
	}
	if cfg.GitHub.WebhookSecret == "" {
		log.Warn("no webhook secret configured, signature verification is disabled")
	}

	assessor := service.NewAssessor(policies, store, ghClient, log)
	validator := validation.New(cfg.Limits)

	handler := handlers.New(assessor, store, ghClient, keys, validator, cfg.GitHub.WebhookSecret, log)

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow)
	mw := middleware.New(log, keys, limiter, cfg.Limits.MaxBodyBytes)

	srv := server.New(cfg, handler, mw, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("application stopped")
	return nil
}
