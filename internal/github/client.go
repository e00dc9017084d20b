// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/diffguard/diffguard/internal/core"
)

// Client defines the source-control operations the review pipeline needs:
// pull-request metadata, diff text, file content at a revision, and review
// creation.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetPullRequestContext(ctx context.Context, owner, repo string, number int) (*core.PRContext, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	CompareDiff(ctx context.Context, owner, repo, base, head string) (string, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, bool, error)
	CreateReview(ctx context.Context, owner, repo string, number int, comments []core.Comment) error
	CreateReviewComment(ctx context.Context, owner, repo string, number int, commitID string, comment core.Comment) error
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a GitHub client authenticated with a Personal Access
// Token. This is the authentication mode used by the one-shot CLI run.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)
	return &gitHubClient{client: client, logger: logger}
}

// GetPullRequestContext retrieves the metadata a review run needs, fetched
// once per run.
func (g *gitHubClient) GetPullRequestContext(ctx context.Context, owner, repo string, number int) (*core.PRContext, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, err
	}
	return &core.PRContext{
		Owner:        owner,
		Repo:         repo,
		Number:       number,
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		BaseRevision: pr.GetBase().GetSHA(),
		HeadRevision: pr.GetHead().GetSHA(),
	}, nil
}

// GetPullRequestDiff retrieves the full diff of a pull request as a string.
func (g *gitHubClient) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := g.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		g.logger.Error("failed to get pull request diff", "owner", owner, "repo", repo, "pr", number, "error", err)
		return "", err
	}
	return diff, nil
}

// CompareDiff retrieves the diff between two commits, used for synchronize
// events where only the newly pushed range is reviewed.
func (g *gitHubClient) CompareDiff(ctx context.Context, owner, repo, base, head string) (string, error) {
	diff, _, err := g.client.Repositories.CompareCommitsRaw(ctx, owner, repo, base, head, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		g.logger.Error("failed to compare commits", "owner", owner, "repo", repo, "base", base, "head", head, "error", err)
		return "", err
	}
	return diff, nil
}

// GetFileContent fetches the content of a file at a specific revision. The
// second return value is false when the file does not exist at that revision;
// that is not an error.
func (g *gitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, bool, error) {
	fileContent, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		g.logger.Error("failed to get file content", "owner", owner, "repo", repo, "path", path, "ref", ref, "error", err)
		return "", false, err
	}
	if fileContent == nil {
		// Path resolved to a directory listing.
		return "", false, nil
	}
	content, err := fileContent.GetContent()
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// CreateReview submits one batch of comments as a single non-blocking review.
func (g *gitHubClient) CreateReview(ctx context.Context, owner, repo string, number int, comments []core.Comment) error {
	if len(comments) == 0 {
		return errors.New("refusing to create a review with no comments")
	}

	ghComments := make([]*github.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path: github.Ptr(c.Path),
			Line: github.Ptr(c.Line),
			Side: github.Ptr(string(c.Side)),
			Body: github.Ptr(c.Body),
		})
	}

	reviewRequest := &github.PullRequestReviewRequest{
		Event:    github.Ptr("COMMENT"),
		Comments: ghComments,
	}

	_, _, err := g.client.PullRequests.CreateReview(ctx, owner, repo, number, reviewRequest)
	if err != nil {
		g.logger.Error("failed to create pull request review", "owner", owner, "repo", repo, "pr", number, "comments", len(comments), "error", err)
	}
	return err
}

// CreateReviewComment posts a single review comment, used as the fallback
// when a batched review submission fails.
func (g *gitHubClient) CreateReviewComment(ctx context.Context, owner, repo string, number int, commitID string, comment core.Comment) error {
	_, _, err := g.client.PullRequests.CreateComment(ctx, owner, repo, number, &github.PullRequestComment{
		Path:     github.Ptr(comment.Path),
		Line:     github.Ptr(comment.Line),
		Side:     github.Ptr(string(comment.Side)),
		Body:     github.Ptr(comment.Body),
		CommitID: github.Ptr(commitID),
	})
	if err != nil {
		g.logger.Error("failed to create review comment", "owner", owner, "repo", repo, "pr", number, "path", comment.Path, "line", comment.Line, "error", err)
	}
	return err
}
