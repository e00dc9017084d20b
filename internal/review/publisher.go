package review

import (
	"context"
	"log/slog"

	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/github"
)

// BatchSize is the maximum number of comments submitted in one review call.
const BatchSize = 50

// Publisher submits the final comment list as non-blocking reviews.
type Publisher struct {
	client github.Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher backed by the given source-control client.
func NewPublisher(client github.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish splits comments into batches of BatchSize, preserving order, and
// submits each batch as one review. When a batch fails, every comment in it
// is retried individually; a comment that still cannot be created is logged
// and skipped so it never blocks the rest. Returns the number of comments
// that were posted. An empty comment list performs no call at all.
func (p *Publisher) Publish(ctx context.Context, pr *core.PRContext, comments []core.Comment) int {
	if len(comments) == 0 {
		p.logger.Info("no comments to publish", "pr", pr.Number)
		return 0
	}

	published := 0
	for _, batch := range splitBatches(comments, BatchSize) {
		if err := p.client.CreateReview(ctx, pr.Owner, pr.Repo, pr.Number, batch); err == nil {
			published += len(batch)
			continue
		}

		p.logger.Warn("batch review creation failed, falling back to individual comments", "pr", pr.Number, "batch_size", len(batch))
		for _, c := range batch {
			if err := p.client.CreateReviewComment(ctx, pr.Owner, pr.Repo, pr.Number, pr.HeadRevision, c); err != nil {
				p.logger.Error("failed to create review comment", "pr", pr.Number, "path", c.Path, "line", c.Line, "error", err)
				continue
			}
			published++
		}
	}

	p.logger.Info("published review comments", "pr", pr.Number, "published", published, "total", len(comments))
	return published
}

// splitBatches cuts comments into consecutive slices of at most size
// elements, preserving order.
func splitBatches(comments []core.Comment, size int) [][]core.Comment {
	var batches [][]core.Comment
	for start := 0; start < len(comments); start += size {
		end := min(start+size, len(comments))
		batches = append(batches, comments[start:end])
	}
	return batches
}
