package jobs_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/jobs"
	"github.com/diffguard/diffguard/internal/llm"
	"github.com/diffguard/diffguard/internal/retry"
	"github.com/diffguard/diffguard/mocks"
)

const appDiff = `diff --git a/app.py b/app.py
--- a/app.py
+++ b/app.py
@@ -40,3 +40,4 @@ def handler():
 alpha
 beta
+gamma
 delta
`

const vendoredDiff = appDiff + `diff --git a/vendor/lib.py b/vendor/lib.py
--- a/vendor/lib.py
+++ b/vendor/lib.py
@@ -1,2 +1,3 @@
 one
+two
 three
`

const deletionDiff = appDiff + `diff --git a/legacy.py b/legacy.py
deleted file mode 100644
--- a/legacy.py
+++ /dev/null
@@ -1,2 +0,0 @@
-import os
-print(os.getcwd())
`

type fixture struct {
	client    *mocks.MockClient
	threads   *mocks.MockThreadLister
	completer *mocks.MockCompleter
	job       *jobs.ReviewJob
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		client:    mocks.NewMockClient(ctrl),
		threads:   mocks.NewMockThreadLister(ctrl),
		completer: mocks.NewMockCompleter(ctrl),
	}

	logger := slog.New(slog.DiscardHandler)
	promptMgr, err := llm.NewPromptManager()
	require.NoError(t, err)

	reviewer := llm.NewReviewer(f.completer, retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}, logger)
	factory := func(_ context.Context, _ *core.ReviewEvent) (*jobs.Clients, error) {
		return &jobs.Clients{SourceControl: f.client, Threads: f.threads}, nil
	}

	f.job = jobs.NewReviewJob(cfg, factory, reviewer, promptMgr, logger)
	return f
}

func openedEvent() *core.ReviewEvent {
	return &core.ReviewEvent{
		Kind:         core.EventOpened,
		RepoOwner:    "octo",
		RepoName:     "hello",
		RepoFullName: "octo/hello",
		PRNumber:     7,
	}
}

func prContext() *core.PRContext {
	return &core.PRContext{
		Owner:        "octo",
		Repo:         "hello",
		Number:       7,
		Title:        "Add gamma step",
		Description:  "Extends the handler pipeline.",
		BaseRevision: "base-sha",
		HeadRevision: "head-sha",
	}
}

// expectPreamble wires the calls every successful run makes before any file
// is reviewed: context fetch, full-PR diff fetch, repo config probe.
func (f *fixture) expectPreamble(rawDiff string) {
	f.client.EXPECT().GetPullRequestContext(gomock.Any(), "octo", "hello", 7).Return(prContext(), nil)
	f.client.EXPECT().GetPullRequestDiff(gomock.Any(), "octo", "hello", 7).Return(rawDiff, nil)
	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", ".diffguard.yml", "head-sha").Return("", false, nil)
}

func intPtr(v int) *int { return &v }

func TestReviewJob_PublishesModelFindings(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").
		Return("def handler():\n    pass\n", true, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"reviews":[{"lineNumber":42,"changeType":"+","reviewComment":"Handle the error return."}]}`, nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	wantComments := []core.Comment{
		{Path: "app.py", Line: 42, Side: core.SideRight, Body: "Handle the error return."},
	}
	f.client.EXPECT().CreateReview(gomock.Any(), "octo", "hello", 7, wantComments).Return(nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesChanged)
	assert.Equal(t, 1, res.FilesReviewed)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, 1, res.Published)
}

func TestReviewJob_SkipsCommentsWithExistingThreads(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"reviews":[{"lineNumber":42,"changeType":"+","reviewComment":"Handle the error return."}]}`, nil)

	// An active thread already sits on the exact same location.
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return([]core.ReviewThread{
		{Path: "app.py", DiffSide: core.SideRight, Line: intPtr(42)},
	}, nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 0, res.Published)
}

func TestReviewJob_OutdatedThreadDoesNotSuppressComment(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"reviews":[{"lineNumber":42,"changeType":"+","reviewComment":"Handle the error return."}]}`, nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return([]core.ReviewThread{
		{Path: "app.py", DiffSide: core.SideRight, Line: intPtr(42), IsOutdated: true},
	}, nil)
	f.client.EXPECT().CreateReview(gomock.Any(), "octo", "hello", 7, gomock.Len(1)).Return(nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, 1, res.Published)
}

func TestReviewJob_EmptyDiffEndsRunEarly(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.client.EXPECT().GetPullRequestContext(gomock.Any(), "octo", "hello", 7).Return(prContext(), nil)
	f.client.EXPECT().GetPullRequestDiff(gomock.Any(), "octo", "hello", 7).Return("", nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, &jobs.Result{}, res)
}

func TestReviewJob_SynchronizeComparesPushedRange(t *testing.T) {
	f := newFixture(t, &config.Config{})
	event := openedEvent()
	event.Kind = core.EventSynchronize
	event.Before = "old-head"
	event.After = "new-head"

	f.client.EXPECT().GetPullRequestContext(gomock.Any(), "octo", "hello", 7).Return(prContext(), nil)
	f.client.EXPECT().CompareDiff(gomock.Any(), "octo", "hello", "old-head", "new-head").Return("", nil)

	res, err := f.job.Execute(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, &jobs.Result{}, res)
}

func TestReviewJob_ExcludedFilesAreNotSentToModel(t *testing.T) {
	f := newFixture(t, &config.Config{Exclude: "vendor/**"})
	f.expectPreamble(vendoredDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "app.py")
			assert.NotContains(t, prompt, "vendor/lib.py")
			return `{"reviews":[]}`, nil
		})
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesChanged)
	assert.Equal(t, 1, res.FilesReviewed)
	assert.Equal(t, 0, res.Published)
}

func TestReviewJob_DeletedFilesCountAsChangedButAreNotReviewed(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(deletionDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"reviews":[]}`, nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesChanged)
	assert.Equal(t, 1, res.FilesReviewed)
}

func TestReviewJob_RepoConfigExtendsExcludes(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.client.EXPECT().GetPullRequestContext(gomock.Any(), "octo", "hello", 7).Return(prContext(), nil)
	f.client.EXPECT().GetPullRequestDiff(gomock.Any(), "octo", "hello", 7).Return(vendoredDiff, nil)
	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", ".diffguard.yml", "head-sha").
		Return("guidelines: Prefer early returns.\nexclude:\n  - \"vendor/**\"\n", true, nil)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "Prefer early returns.")
			return `{"reviews":[]}`, nil
		})
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesReviewed)
}

func TestReviewJob_ModelFailureAfterRetriesIsFatal(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return("", errors.New("model unavailable")).Times(3)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "app.py")
}

func TestReviewJob_DiscardsInvalidCandidates(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	// One valid finding among a negative line number, an unknown change type
	// and an empty comment body.
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"reviews":[
			{"lineNumber":-3,"changeType":"+","reviewComment":"bad line"},
			{"lineNumber":42,"changeType":"~","reviewComment":"bad type"},
			{"lineNumber":42,"changeType":"+","reviewComment":""},
			{"lineNumber":42,"changeType":"+","reviewComment":"Handle the error return."}
		]}`, nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	wantComments := []core.Comment{
		{Path: "app.py", Line: 42, Side: core.SideRight, Body: "Handle the error return."},
	}
	f.client.EXPECT().CreateReview(gomock.Any(), "octo", "hello", 7, wantComments).Return(nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Published)
}

func TestReviewJob_UnparsableModelResponsePublishesNothing(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("I could not find any issues!", nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).Return(nil, nil)

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.NoError(t, err)
	assert.Equal(t, 0, res.Candidates)
	assert.Equal(t, 0, res.Published)
}

func TestReviewJob_ThreadListingFailureIsFatal(t *testing.T) {
	f := newFixture(t, &config.Config{})
	f.expectPreamble(appDiff)

	f.client.EXPECT().GetFileContent(gomock.Any(), "octo", "hello", "app.py", "base-sha").Return("", false, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"reviews":[]}`, nil)
	f.threads.EXPECT().ListReviewThreads(gomock.Any(), "octo", "hello", 7).
		Return(nil, errors.New("graphql timeout"))

	res, err := f.job.Execute(context.Background(), openedEvent())

	require.Error(t, err)
	assert.Nil(t, res)
}

func TestReviewJob_ValidatesEvent(t *testing.T) {
	tests := []struct {
		name  string
		event *core.ReviewEvent
	}{
		{name: "nil event", event: nil},
		{name: "missing owner", event: &core.ReviewEvent{Kind: core.EventOpened, RepoName: "hello", PRNumber: 7}},
		{name: "missing repo", event: &core.ReviewEvent{Kind: core.EventOpened, RepoOwner: "octo", PRNumber: 7}},
		{name: "bad number", event: &core.ReviewEvent{Kind: core.EventOpened, RepoOwner: "octo", RepoName: "hello"}},
		{name: "synchronize without range", event: &core.ReviewEvent{Kind: core.EventSynchronize, RepoOwner: "octo", RepoName: "hello", PRNumber: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &config.Config{})

			_, err := f.job.Execute(context.Background(), tt.event)

			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "validation"))
		})
	}
}
