package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/retry"
)

// DefaultRetryPolicy bounds model-call retries: three attempts with a fixed
// one-second pause between them.
var DefaultRetryPolicy = retry.Policy{MaxAttempts: 3, Delay: time.Second}

// Reviewer invokes the language model for one file's prompt and extracts the
// structured review candidates from its response. Transport failures are
// retried per the policy; once retries are exhausted, the failure is fatal
// for the run. A completion that succeeds but cannot be parsed yields an
// empty candidate list instead.
type Reviewer struct {
	completer Completer
	policy    retry.Policy
	logger    *slog.Logger
}

// NewReviewer creates a Reviewer with the given completion backend and retry
// policy.
func NewReviewer(completer Completer, policy retry.Policy, logger *slog.Logger) *Reviewer {
	return &Reviewer{completer: completer, policy: policy, logger: logger}
}

// Review runs the model over a prompt and returns its raw review candidates.
func (r *Reviewer) Review(ctx context.Context, prompt string) ([]core.ReviewCandidate, error) {
	raw, err := retry.Do(ctx, r.policy, r.logger, "model completion", func(ctx context.Context) (string, error) {
		return r.completer.Complete(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}
	return r.parse(raw), nil
}

// parse extracts review candidates from the raw completion. Responses the
// model returned successfully but that are empty or not valid JSON are
// treated as "no findings", not as errors.
func (r *Reviewer) parse(raw string) []core.ReviewCandidate {
	cleaned := stripJSONFence(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	var review core.ModelReview
	if err := json.Unmarshal([]byte(cleaned), &review); err != nil {
		r.logger.Warn("discarding unparsable model response", "error", err, "response_bytes", len(raw))
		return nil
	}
	return review.Reviews
}

// stripJSONFence removes a ```json ... ``` wrapping that some models add
// around their output even in JSON mode.
func stripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```") {
		idx := strings.Index(trimmed, "\n")
		if idx < 0 {
			return s
		}
		inner := trimmed[idx+1:]
		if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
			inner = inner[:lastFence]
		}
		return strings.TrimSpace(inner)
	}
	return s
}
