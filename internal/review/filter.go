// Package review implements the diff-to-comment pipeline: filtering changed
// files, mapping model findings to diff-anchored comments, deduplicating
// against existing review threads, and publishing.
package review

import (
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/diffguard/diffguard/internal/diff"
)

// ReviewableFiles drops files that have no new revision to anchor comments
// to. Deleted files are excluded here unconditionally, before any pattern
// matching.
func ReviewableFiles(files []diff.FileDiff) []diff.FileDiff {
	kept := make([]diff.FileDiff, 0, len(files))
	for _, f := range files {
		if f.IsDeleted() {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// ExcludeFiles returns the subset of files whose path matches none of the
// glob patterns. Patterns use doublestar semantics, so `**` spans directory
// separators. A pattern that fails to compile is skipped with a warning
// rather than silently matching nothing or everything.
func ExcludeFiles(files []diff.FileDiff, patterns []string, logger *slog.Logger) []diff.FileDiff {
	if len(patterns) == 0 {
		return files
	}

	kept := make([]diff.FileDiff, 0, len(files))
	for _, f := range files {
		if matchesAny(f.ToPath, patterns, logger) {
			logger.Debug("excluding file from review", "path", f.ToPath)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func matchesAny(path string, patterns []string, logger *slog.Logger) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			logger.Warn("skipping invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
