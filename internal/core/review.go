package core

// Side identifies which revision of a file a review comment is anchored to.
type Side string

const (
	// SideLeft anchors a comment to the base (old) revision of a file.
	SideLeft Side = "LEFT"
	// SideRight anchors a comment to the head (new) revision of a file.
	SideRight Side = "RIGHT"
)

// PRContext holds the pull-request metadata a review run operates on.
// It is fetched once at the start of a run and treated as immutable.
type PRContext struct {
	Owner        string
	Repo         string
	Number       int
	Title        string
	Description  string
	BaseRevision string
	HeadRevision string
}

// ReviewCandidate is a single raw finding from the language model, before
// validation. LineNumber and ChangeType are unchecked model output.
type ReviewCandidate struct {
	LineNumber    int    `json:"lineNumber"`
	ChangeType    string `json:"changeType"`
	ReviewComment string `json:"reviewComment"`
}

// ModelReview is the full structured response the language model is asked
// to produce for one file.
type ModelReview struct {
	Reviews []ReviewCandidate `json:"reviews"`
}

// Comment is a validated, diff-anchored review comment ready for posting.
// The triple (Path, Line, Side) is its identity for deduplication.
type Comment struct {
	Path string
	Line int
	Side Side
	Body string
}

// Key returns the identity of the comment's anchor location.
func (c Comment) Key() CommentKey {
	return CommentKey{Path: c.Path, Line: c.Line, Side: c.Side}
}

// CommentKey is the (path, line, side) location identity used to detect
// duplicates against existing review threads.
type CommentKey struct {
	Path string
	Line int
	Side Side
}

// ReviewThread is an existing conversation on the pull request, anchored to a
// file location. Line carries the head-relative line, OriginalLine the
// base-relative line; either may be absent when the platform has no anchor
// for that side.
type ReviewThread struct {
	Path         string
	DiffSide     Side
	Line         *int
	OriginalLine *int
	IsOutdated   bool
	IsResolved   bool
}
