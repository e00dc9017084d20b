// Package jobs defines background tasks such as automated code reviews.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/diff"
	"github.com/diffguard/diffguard/internal/github"
	"github.com/diffguard/diffguard/internal/llm"
	"github.com/diffguard/diffguard/internal/review"
)

// repoConfigPath is the optional per-repository review configuration file,
// read from the pull request's head revision.
const repoConfigPath = ".diffguard.yml"

// Clients bundles the source-control capabilities one review run needs.
type Clients struct {
	SourceControl github.Client
	Threads       github.ThreadLister
}

// ClientFactory creates the clients for one event. Server mode authenticates
// per app installation, the CLI with a static token.
type ClientFactory func(ctx context.Context, event *core.ReviewEvent) (*Clients, error)

// Result summarizes what a review run did.
type Result struct {
	FilesChanged  int
	FilesReviewed int
	Candidates    int
	Duplicates    int
	Published     int
}

// ReviewJob reviews the changed files of a pull request with a language
// model and posts the findings as inline review comments.
type ReviewJob struct {
	cfg       *config.Config
	clients   ClientFactory
	reviewer  *llm.Reviewer
	promptMgr *llm.PromptManager
	logger    *slog.Logger
}

// NewReviewJob creates a new ReviewJob.
func NewReviewJob(cfg *config.Config, clients ClientFactory, reviewer *llm.Reviewer, promptMgr *llm.PromptManager, logger *slog.Logger) *ReviewJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if clients == nil {
		panic("client factory cannot be nil")
	}
	if reviewer == nil {
		panic("reviewer cannot be nil")
	}
	if promptMgr == nil {
		panic("prompt manager cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{cfg: cfg, clients: clients, reviewer: reviewer, promptMgr: promptMgr, logger: logger}
}

// Run executes the review job for an event. It satisfies core.Job.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) error {
	_, err := j.Execute(ctx, event)
	return err
}

// Execute runs the full pipeline and reports what happened. Recoverable
// conditions (empty diff, missing base content, invalid candidates, failed
// individual comments) are absorbed and logged; diff parse failures, model
// calls exhausting their retries and thread listing failures are fatal.
func (j *ReviewJob) Execute(ctx context.Context, event *core.ReviewEvent) (*Result, error) {
	if err := validateEvent(event); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review job", "repo", event.RepoFullName, "pr", event.PRNumber, "kind", event.Kind)

	clients, err := j.clients(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create source-control clients: %w", err)
	}

	pr, err := clients.SourceControl.GetPullRequestContext(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request context: %w", err)
	}
	pr.Title = fallback(pr.Title, event.PRTitle)
	pr.Description = fallback(pr.Description, event.PRBody)

	rawDiff, err := j.fetchDiff(ctx, clients.SourceControl, event)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch diff: %w", err)
	}
	if strings.TrimSpace(rawDiff) == "" {
		j.logger.Info("diff is empty, nothing to review", "repo", event.RepoFullName, "pr", event.PRNumber)
		return &Result{}, nil
	}

	files, err := diff.Parse(rawDiff)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	result := &Result{FilesChanged: len(files)}
	files = review.ReviewableFiles(files)

	guidelines, patterns := j.mergeRepoConfig(ctx, clients.SourceControl, pr)
	files = review.ExcludeFiles(files, patterns, j.logger)
	result.FilesReviewed = len(files)

	builder := llm.NewPromptBuilder(j.promptMgr, guidelines)

	var comments []core.Comment
	for _, file := range files {
		fileComments, err := j.reviewFile(ctx, clients.SourceControl, builder, pr, file)
		if err != nil {
			return nil, fmt.Errorf("review of %s failed: %w", file.ToPath, err)
		}
		comments = append(comments, fileComments...)
	}
	result.Candidates = len(comments)

	threads, err := clients.Threads.ListReviewThreads(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing review threads: %w", err)
	}
	deduped := review.FilterDuplicates(comments, review.ExistingKeys(threads), j.logger)
	result.Duplicates = len(comments) - len(deduped)

	publisher := review.NewPublisher(clients.SourceControl, j.logger)
	result.Published = publisher.Publish(ctx, pr, deduped)

	j.logger.Info("review job completed",
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
		"files_reviewed", result.FilesReviewed,
		"candidates", result.Candidates,
		"duplicates", result.Duplicates,
		"published", result.Published,
	)
	return result, nil
}

// fetchDiff selects the change range for the event: the whole pull request
// when it was just opened, only the newly pushed commit range on synchronize.
func (j *ReviewJob) fetchDiff(ctx context.Context, client github.Client, event *core.ReviewEvent) (string, error) {
	switch event.Kind {
	case core.EventOpened:
		return client.GetPullRequestDiff(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	case core.EventSynchronize:
		return client.CompareDiff(ctx, event.RepoOwner, event.RepoName, event.Before, event.After)
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedEvent, event.Kind)
	}
}

// reviewFile runs prompt construction, the model call and candidate mapping
// for a single changed file.
func (j *ReviewJob) reviewFile(ctx context.Context, client github.Client, builder *llm.PromptBuilder, pr *core.PRContext, file diff.FileDiff) ([]core.Comment, error) {
	baseContent := ""
	if file.FromPath != "" && file.FromPath != diff.DeletedPath {
		content, found, err := client.GetFileContent(ctx, pr.Owner, pr.Repo, file.FromPath, pr.BaseRevision)
		switch {
		case err != nil:
			j.logger.Warn("could not fetch base file content, reviewing diff only", "path", file.FromPath, "error", err)
		case found:
			baseContent = content
		}
	}

	prompt, err := builder.Build(pr, file.ToPath, diff.RenderNumbered(file), baseContent)
	if err != nil {
		return nil, err
	}

	candidates, err := j.reviewer.Review(ctx, prompt)
	if err != nil {
		return nil, err
	}
	j.logger.Debug("model produced candidates", "path", file.ToPath, "count", len(candidates))

	return review.MapCandidates(file, candidates, j.logger), nil
}

// mergeRepoConfig combines the environment configuration with the optional
// .diffguard.yml at the head revision. A missing or malformed repo file is
// logged and ignored; the run proceeds with the environment settings.
func (j *ReviewJob) mergeRepoConfig(ctx context.Context, client github.Client, pr *core.PRContext) (guidelines string, patterns []string) {
	guidelines = j.cfg.Guidelines
	patterns = j.cfg.ExcludePatterns()

	content, found, err := client.GetFileContent(ctx, pr.Owner, pr.Repo, repoConfigPath, pr.HeadRevision)
	if err != nil || !found {
		if err != nil {
			j.logger.Warn("could not fetch repository config", "path", repoConfigPath, "error", err)
		}
		return guidelines, patterns
	}

	repoCfg, err := config.ParseRepoConfig([]byte(content))
	if err != nil {
		j.logger.Warn("ignoring malformed repository config", "path", repoConfigPath, "error", err)
		return guidelines, patterns
	}

	if repoCfg.Guidelines != "" {
		guidelines = repoCfg.Guidelines
	}
	patterns = append(patterns, repoCfg.Exclude...)
	return guidelines, patterns
}

func validateEvent(event *core.ReviewEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return errors.New("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return errors.New("repository name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	if event.Kind == core.EventSynchronize && (event.Before == "" || event.After == "") {
		return errors.New("synchronize event requires a before/after commit range")
	}
	return nil
}

func fallback(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}
