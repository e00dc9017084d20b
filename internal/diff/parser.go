// Package diff parses unified diff text into structured per-file changes,
// preserving the old/new line numbering encoded in hunk headers.
package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DeletedPath is the path sentinel git uses for a removed file.
const DeletedPath = "/dev/null"

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// LineKind classifies a single line of a hunk.
type LineKind int

const (
	// Context is an unchanged line present in both revisions.
	Context LineKind = iota
	// Added is a line present only in the new revision.
	Added
	// Deleted is a line present only in the old revision.
	Deleted
)

// LineChange is one line of a hunk. OldLine is valid for Deleted and Context
// lines, NewLine for Added and Context lines; the other side is zero.
type LineChange struct {
	Kind    LineKind
	Content string
	OldLine int
	NewLine int
}

// Chunk is a contiguous hunk of changes with its raw "@@" header.
type Chunk struct {
	Header string
	Lines  []LineChange
}

// FileDiff holds all hunks of a single file, in diff order.
type FileDiff struct {
	FromPath string
	ToPath   string
	Chunks   []Chunk
}

// IsDeleted reports whether the diff removes the file entirely. Deleted files
// have no new revision to anchor comments to and are never reviewed.
func (f FileDiff) IsDeleted() bool {
	return f.ToPath == "" || f.ToPath == DeletedPath
}

// ParseError describes unified-diff text the parser could not make sense of.
type ParseError struct {
	LineNo int
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s (%q)", e.LineNo, e.Reason, e.Line)
}

// Parse turns raw unified-diff text into an ordered sequence of FileDiff.
// Empty input yields an empty result, which callers treat as "nothing to
// review". Text that is not a unified diff fails with a *ParseError.
func Parse(raw string) ([]FileDiff, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var (
		files   []FileDiff
		current *FileDiff
		chunk   *Chunk
		oldLine int
		newLine int
		oldLeft int
		newLeft int
	)

	flushChunk := func() {
		if chunk != nil && current != nil {
			current.Chunks = append(current.Chunks, *chunk)
		}
		chunk = nil
	}
	flushFile := func() {
		flushChunk()
		if current != nil {
			files = append(files, *current)
		}
		current = nil
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		// While a hunk body is open, every line belongs to it until the
		// counts declared by the hunk header are consumed. Checking these
		// cases first keeps deleted content beginning with "-- " (emitted by
		// git as "--- <text>") and added content beginning with "++ " from
		// being mistaken for file headers.
		switch {
		case chunk != nil && strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" carries no line numbering.

		case chunk != nil && strings.HasPrefix(line, "+"):
			chunk.Lines = append(chunk.Lines, LineChange{Kind: Added, Content: line, NewLine: newLine})
			newLine++
			newLeft--

		case chunk != nil && strings.HasPrefix(line, "-"):
			chunk.Lines = append(chunk.Lines, LineChange{Kind: Deleted, Content: line, OldLine: oldLine})
			oldLine++
			oldLeft--

		case chunk != nil && (strings.HasPrefix(line, " ") || line == ""):
			// Some tooling strips the trailing space off empty context lines.
			chunk.Lines = append(chunk.Lines, LineChange{Kind: Context, Content: line, OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
			oldLeft--
			newLeft--

		case strings.HasPrefix(line, "diff --git "):
			flushFile()
			current = &FileDiff{}

		case strings.HasPrefix(line, "--- "):
			flushChunk()
			// Without a "diff --git" preamble, an old-file marker after a
			// completed section opens the next file.
			if current != nil && len(current.Chunks) > 0 {
				flushFile()
			}
			if current == nil {
				current = &FileDiff{}
			}
			current.FromPath = cleanPath(strings.TrimPrefix(line, "--- "))

		case strings.HasPrefix(line, "+++ "):
			if current == nil {
				return nil, &ParseError{LineNo: i + 1, Line: line, Reason: "file header without preceding old-file marker"}
			}
			flushChunk()
			current.ToPath = cleanPath(strings.TrimPrefix(line, "+++ "))

		case strings.HasPrefix(line, "@@"):
			if current == nil {
				return nil, &ParseError{LineNo: i + 1, Line: line, Reason: "hunk header outside of a file section"}
			}
			matches := hunkHeaderRegex.FindStringSubmatch(line)
			if matches == nil {
				return nil, &ParseError{LineNo: i + 1, Line: line, Reason: "unparsable hunk header"}
			}
			flushChunk()
			oldLine, _ = strconv.Atoi(matches[1])
			newLine, _ = strconv.Atoi(matches[3])
			oldLeft = spanCount(matches[2])
			newLeft = spanCount(matches[4])
			chunk = &Chunk{Header: line}

		default:
			// Git metadata between the file header and the first hunk
			// (index, mode, rename, binary notice). Ignored.
		}

		if chunk != nil && oldLeft <= 0 && newLeft <= 0 {
			flushChunk()
		}
	}
	flushFile()

	if len(files) == 0 {
		return nil, &ParseError{LineNo: 1, Line: firstLine(raw), Reason: "no file sections found"}
	}
	return files, nil
}

// spanCount parses the optional line count of one side of a hunk header.
// Git omits the count when the span is a single line.
func spanCount(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// cleanPath strips the a/ or b/ prefix git puts in front of file paths.
// The /dev/null sentinel is kept as-is.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if tab := strings.IndexByte(p, '\t'); tab >= 0 {
		p = p[:tab]
	}
	if p == DeletedPath {
		return p
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
