package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/diffguard/diffguard/internal/core"
)

const graphqlEndpoint = "https://api.github.com/graphql"

// The REST API does not expose whether a review thread is outdated, so
// existing threads are listed through the GraphQL v4 API instead.
const reviewThreadsQuery = `
query($owner: String!, $repo: String!, $pr: Int!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $pr) {
      reviewThreads(first: 100, after: $cursor) {
        pageInfo { hasNextPage endCursor }
        nodes {
          path
          diffSide
          line
          originalLine
          isOutdated
          isResolved
        }
      }
    }
  }
}`

// ThreadLister lists the review threads already present on a pull request.
//
//go:generate mockgen -destination=../../mocks/mock_thread_lister.go -package=mocks . ThreadLister
type ThreadLister interface {
	ListReviewThreads(ctx context.Context, owner, repo string, number int) ([]core.ReviewThread, error)
}

type threadLister struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

// NewThreadLister creates a ThreadLister that queries the GitHub GraphQL API
// with the given token.
func NewThreadLister(ctx context.Context, token string, logger *slog.Logger) ThreadLister {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &threadLister{
		httpClient: oauth2.NewClient(ctx, ts),
		endpoint:   graphqlEndpoint,
		logger:     logger,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type threadNode struct {
	Path         string `json:"path"`
	DiffSide     string `json:"diffSide"`
	Line         *int   `json:"line"`
	OriginalLine *int   `json:"originalLine"`
	IsOutdated   bool   `json:"isOutdated"`
	IsResolved   bool   `json:"isResolved"`
}

type threadsResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []threadNode `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListReviewThreads pages through every review thread on the pull request.
func (t *threadLister) ListReviewThreads(ctx context.Context, owner, repo string, number int) ([]core.ReviewThread, error) {
	var threads []core.ReviewThread
	var cursor *string

	for {
		resp, err := t.query(ctx, owner, repo, number, cursor)
		if err != nil {
			t.logger.Error("failed to list review threads", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}

		for _, node := range resp.Data.Repository.PullRequest.ReviewThreads.Nodes {
			threads = append(threads, core.ReviewThread{
				Path:         node.Path,
				DiffSide:     core.Side(node.DiffSide),
				Line:         node.Line,
				OriginalLine: node.OriginalLine,
				IsOutdated:   node.IsOutdated,
				IsResolved:   node.IsResolved,
			})
		}

		page := resp.Data.Repository.PullRequest.ReviewThreads.PageInfo
		if !page.HasNextPage {
			return threads, nil
		}
		cursor = &page.EndCursor
	}
}

func (t *threadLister) query(ctx context.Context, owner, repo string, number int, cursor *string) (*threadsResponse, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: reviewThreadsQuery,
		Variables: map[string]any{
			"owner":  owner,
			"repo":   repo,
			"pr":     number,
			"cursor": cursor,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, fmt.Errorf("GraphQL request returned status %d: %s", httpResp.StatusCode, payload)
	}

	var resp threadsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL query failed: %s", resp.Errors[0].Message)
	}
	return &resp, nil
}
