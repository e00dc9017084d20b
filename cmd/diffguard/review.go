package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	gh "github.com/google/go-github/v73/github"
	"github.com/spf13/cobra"

	"github.com/diffguard/diffguard/internal/app"
	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/gitutil"
	"github.com/diffguard/diffguard/internal/jobs"
	"github.com/diffguard/diffguard/internal/logger"
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run a one-shot review of a pull request",
	Long: `Run a one-shot review of a pull request.

Without arguments the review command reads the workflow event payload at
GITHUB_EVENT_PATH; given a pull request URL it reviews that pull request
directly. Either way it fetches the diff, asks the language model to review
each changed file, and posts the findings as inline review comments. Events
that do not warrant a review (closed, labeled, ...) are skipped with exit
code 0.

Examples:
  GITHUB_EVENT_PATH=/github/workflow/event.json diffguard review
  diffguard review https://github.com/owner/repo/pull/123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set")
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	var event *core.ReviewEvent
	if len(args) == 1 {
		event, err = eventFromURL(args[0])
	} else {
		if err := cfg.ValidateForReview(); err != nil {
			return err
		}
		event, err = loadEvent(cfg)
	}
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedEvent) {
			dimColor.Printf("Nothing to review: %v\n", err)
			return nil
		}
		return err
	}

	titleColor.Println("diffguard - pull request review")
	dimColor.Printf("   Target: %s#%d\n\n", event.RepoFullName, event.PRNumber)

	job, err := app.NewReviewJob(ctx, cfg, jobs.NewTokenClientFactory(cfg, log), log)
	if err != nil {
		return err
	}

	result, err := job.Execute(ctx, event)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	printSummary(result, time.Since(start))
	return nil
}

// loadEvent reads and validates the workflow event payload. Deliveries that
// are well-formed but not reviewable map to ErrUnsupportedEvent.
func loadEvent(cfg *config.Config) (*core.ReviewEvent, error) {
	payload, err := os.ReadFile(cfg.EventPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload %s: %w", cfg.EventPath, err)
	}

	raw, err := gh.ParseWebHook(cfg.EventName, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s event payload: %w", cfg.EventName, err)
	}

	prEvent, ok := raw.(*gh.PullRequestEvent)
	if !ok {
		return nil, fmt.Errorf("%w: event %q", core.ErrUnsupportedEvent, cfg.EventName)
	}
	return core.EventFromPullRequest(prEvent)
}

// eventFromURL turns an ad-hoc pull request URL into a full-diff review
// event. Title and description are filled in from the platform during the
// run.
func eventFromURL(url string) (*core.ReviewEvent, error) {
	owner, repo, number, err := gitutil.ParsePullRequestURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}
	return &core.ReviewEvent{
		Kind:         core.EventOpened,
		RepoOwner:    owner,
		RepoName:     repo,
		RepoFullName: fmt.Sprintf("%s/%s", owner, repo),
		PRNumber:     number,
	}, nil
}

func printSummary(result *jobs.Result, elapsed time.Duration) {
	fmt.Println()
	titleColor.Println("REVIEW SUMMARY")
	fmt.Printf("   Files changed:  %d\n", result.FilesChanged)
	fmt.Printf("   Files reviewed: %d\n", result.FilesReviewed)
	if result.Duplicates > 0 {
		warnColor.Printf("   Skipped as duplicates: %d\n", result.Duplicates)
	}

	switch {
	case result.Candidates == 0:
		successColor.Println("   No issues found!")
	case result.Published == 0:
		successColor.Println("   All findings already have review threads, nothing new posted.")
	default:
		warnColor.Printf("   Comments posted: %d\n", result.Published)
	}

	dimColor.Printf("\n   Total time: %s\n", elapsed.Round(time.Millisecond))
}
