package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diffguard/diffguard/internal/app"
	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GitHub App webhook server",
	Long: `Run the GitHub App webhook server.

The server listens for pull_request webhook deliveries, authenticates as the
app installation that sent them, and processes reviews asynchronously on a
worker pool.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateForServer(); err != nil {
		return err
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	go func() {
		if err := application.Start(); err != nil {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("received shutdown signal")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	if err := application.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
