package review

import (
	"log/slog"

	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/diff"
)

// MapCandidates converts the raw model findings for one file into
// diff-anchored comments. Structurally invalid candidates (non-positive line
// number, unknown change type, empty comment body) are discarded one by one;
// they never fail the run. Output order matches input order, and no
// intra-file deduplication happens here.
func MapCandidates(file diff.FileDiff, candidates []core.ReviewCandidate, logger *slog.Logger) []core.Comment {
	if file.IsDeleted() {
		return nil
	}

	comments := make([]core.Comment, 0, len(candidates))
	for _, c := range candidates {
		if c.LineNumber <= 0 {
			logger.Debug("discarding candidate with invalid line number", "path", file.ToPath, "line", c.LineNumber)
			continue
		}

		var side core.Side
		switch c.ChangeType {
		case "+":
			side = core.SideRight
		case "-":
			side = core.SideLeft
		default:
			logger.Debug("discarding candidate with invalid change type", "path", file.ToPath, "change_type", c.ChangeType)
			continue
		}

		if c.ReviewComment == "" {
			logger.Debug("discarding candidate with empty comment", "path", file.ToPath, "line", c.LineNumber)
			continue
		}

		comments = append(comments, core.Comment{
			Path: file.ToPath,
			Line: c.LineNumber,
			Side: side,
			Body: c.ReviewComment,
		})
	}
	return comments
}
