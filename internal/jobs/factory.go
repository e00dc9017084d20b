package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/github"
)

// NewTokenClientFactory authenticates every run with the configured personal
// access token. This is the factory the one-shot CLI run uses.
func NewTokenClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, _ *core.ReviewEvent) (*Clients, error) {
		if cfg.GitHubToken == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN is not set")
		}
		return &Clients{
			SourceControl: github.NewPATClient(ctx, cfg.GitHubToken, logger),
			Threads:       github.NewThreadLister(ctx, cfg.GitHubToken, logger),
		}, nil
	}
}

// NewInstallationClientFactory authenticates each run as the GitHub App
// installation that delivered the event. This is the factory webhook server
// mode uses.
func NewInstallationClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, event *core.ReviewEvent) (*Clients, error) {
		if event.InstallationID <= 0 {
			return nil, fmt.Errorf("event has no installation ID")
		}
		client, token, err := github.CreateInstallationClient(ctx, cfg, event.InstallationID, logger)
		if err != nil {
			return nil, err
		}
		return &Clients{
			SourceControl: client,
			Threads:       github.NewThreadLister(ctx, token, logger),
		}, nil
	}
}
