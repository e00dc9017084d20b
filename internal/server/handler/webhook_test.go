package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
	"github.com/diffguard/diffguard/internal/server/handler"
)

const webhookSecret = "test-secret"

type recordingDispatcher struct {
	events []*core.ReviewEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event *core.ReviewEvent) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Stop() {}

func signedRequest(t *testing.T, eventType string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func pullRequestPayload(action string) []byte {
	return []byte(`{
		"action": "` + action + `",
		"before": "old-head",
		"after": "new-head",
		"pull_request": {"number": 7, "title": "Add gamma step"},
		"repository": {"name": "hello", "full_name": "octo/hello", "owner": {"login": "octo"}},
		"installation": {"id": 123}
	}`)
}

func newHandler(dispatcher core.JobDispatcher) *handler.WebhookHandler {
	cfg := &config.Config{GitHubWebhookSecret: webhookSecret}
	return handler.NewWebhookHandler(cfg, dispatcher, slog.New(slog.DiscardHandler))
}

func TestWebhookHandler_DispatchesOpenedPullRequest(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", pullRequestPayload("opened")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0]
	assert.Equal(t, core.EventOpened, event.Kind)
	assert.Equal(t, "octo", event.RepoOwner)
	assert.Equal(t, "hello", event.RepoName)
	assert.Equal(t, 7, event.PRNumber)
	assert.Equal(t, int64(123), event.InstallationID)
}

func TestWebhookHandler_DispatchesSynchronizeWithRange(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", pullRequestPayload("synchronize")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0]
	assert.Equal(t, core.EventSynchronize, event.Kind)
	assert.Equal(t, "old-head", event.Before)
	assert.Equal(t, "new-head", event.After)
}

func TestWebhookHandler_IgnoresUnsupportedAction(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", pullRequestPayload("closed")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_IgnoresOtherEventTypes(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "push", []byte(`{"ref": "refs/heads/main"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newHandler(dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(pullRequestPayload("opened")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_ReportsFullQueue(t *testing.T) {
	dispatcher := &recordingDispatcher{err: assert.AnError}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", pullRequestPayload("opened")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
