// Package app initializes and orchestrates the main components of the
// application. It wires together the configuration, server, and services.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/jobs"
	"github.com/diffguard/diffguard/internal/llm"
	"github.com/diffguard/diffguard/internal/server"
)

// App holds the main application components for webhook server mode.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.JobDispatcher
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application",
		"model", cfg.ModelName,
		"max_workers", cfg.MaxWorkers)

	reviewJob, err := NewReviewJob(ctx, cfg, jobs.NewInstallationClientFactory(cfg, logger), logger)
	if err != nil {
		return nil, err
	}

	dispatcher := jobs.NewDispatcher(reviewJob, cfg.MaxWorkers, logger)
	httpServer := server.NewServer(ctx, cfg, dispatcher, logger)

	logger.Info("application initialized successfully")
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     httpServer,
		logger:     logger,
		dispatcher: dispatcher,
	}, nil
}

// NewReviewJob builds the review pipeline behind a client factory: the model
// backend, prompt templates and retry policy are shared, while source-control
// clients are created per event by the factory.
func NewReviewJob(ctx context.Context, cfg *config.Config, factory jobs.ClientFactory, logger *slog.Logger) (*jobs.ReviewJob, error) {
	completer, err := llm.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.MaxOutputTokens)
	if err != nil {
		logger.Error("failed to connect to the model backend", "error", err)
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		logger.Error("failed to initialize prompt manager", "error", err)
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	reviewer := llm.NewReviewer(completer, llm.DefaultRetryPolicy, logger)
	return jobs.NewReviewJob(cfg, factory, reviewer, promptMgr, logger), nil
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting webhook server",
		"server_port", a.cfg.ServerPort,
		"max_workers", a.cfg.MaxWorkers)

	err := a.server.Start()
	if err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}

	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight jobs to finish.
	a.dispatcher.Stop()

	if serverErr != nil {
		a.logger.Error("stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("stopped successfully")
	return nil
}
