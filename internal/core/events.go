// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ErrUnsupportedEvent marks webhook or workflow events the application does
// not act on. Callers treat it as "nothing to do", not as a failure.
var ErrUnsupportedEvent = errors.New("unsupported event")

// EventKind distinguishes how the change range for a review is derived.
type EventKind string

const (
	// EventOpened reviews the full diff of a newly opened pull request.
	EventOpened EventKind = "opened"
	// EventSynchronize reviews the range between the previous and the new
	// head commit after a push to the pull request branch.
	EventSynchronize EventKind = "synchronize"
)

// ReviewEvent is the application's internal view of a trigger for one review
// run. Before and After are only set for synchronize events.
type ReviewEvent struct {
	Kind EventKind

	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber int
	PRTitle  string
	PRBody   string

	Before string
	After  string

	InstallationID int64
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// internal ReviewEvent representation. It acts as an anti-corruption layer:
// the payload is validated here so jobs can rely on every field being set.
// Actions other than opened, reopened and synchronize yield
// ErrUnsupportedEvent.
func EventFromPullRequest(event *github.PullRequestEvent) (*ReviewEvent, error) {
	var kind EventKind
	switch strings.ToLower(event.GetAction()) {
	case "opened", "reopened":
		kind = EventOpened
	case "synchronize":
		kind = EventSynchronize
	default:
		return nil, fmt.Errorf("%w: pull_request action %q", ErrUnsupportedEvent, event.GetAction())
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	pr := event.GetPullRequest()
	if pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", pr.GetNumber())
	}

	re := &ReviewEvent{
		Kind:           kind,
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       pr.GetNumber(),
		PRTitle:        pr.GetTitle(),
		PRBody:         pr.GetBody(),
		InstallationID: event.GetInstallation().GetID(),
	}

	if kind == EventSynchronize {
		if event.GetBefore() == "" || event.GetAfter() == "" {
			return nil, fmt.Errorf("synchronize event is missing the before/after commit range")
		}
		re.Before = event.GetBefore()
		re.After = event.GetAfter()
	}

	return re, nil
}
