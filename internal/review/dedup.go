package review

import (
	"log/slog"

	"github.com/diffguard/diffguard/internal/core"
)

// ExistingKeys builds the set of (path, line, side) locations already covered
// by review threads on the pull request. Outdated threads no longer anchor to
// current diff content and are ignored; resolved-but-current threads still
// count, so a finding a human already saw is not posted again. Threads whose
// relevant side has no line are dropped rather than matched.
func ExistingKeys(threads []core.ReviewThread) map[core.CommentKey]struct{} {
	keys := make(map[core.CommentKey]struct{}, len(threads))
	for _, t := range threads {
		if t.IsOutdated {
			continue
		}

		var line *int
		switch t.DiffSide {
		case core.SideRight:
			line = t.Line
		case core.SideLeft:
			line = t.OriginalLine
		default:
			continue
		}
		if line == nil {
			continue
		}

		keys[core.CommentKey{Path: t.Path, Line: *line, Side: t.DiffSide}] = struct{}{}
	}
	return keys
}

// FilterDuplicates removes every candidate whose anchor location exactly
// matches an existing review thread. Matching is exact equality on the
// 3-tuple; there is no text-similarity matching.
func FilterDuplicates(comments []core.Comment, existing map[core.CommentKey]struct{}, logger *slog.Logger) []core.Comment {
	if len(existing) == 0 {
		return comments
	}

	kept := make([]core.Comment, 0, len(comments))
	for _, c := range comments {
		if _, ok := existing[c.Key()]; ok {
			logger.Info("skipping duplicate comment", "path", c.Path, "line", c.Line, "side", c.Side)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
