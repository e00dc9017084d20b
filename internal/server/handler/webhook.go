// Package handler provides the HTTP handlers for webhook server mode.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/core"
)

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	cfg        *config.Config
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with the given configuration and dispatcher.
func NewWebhookHandler(cfg *config.Config, dispatcher core.JobDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle validates and routes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, []byte(h.cfg.GitHubWebhookSecret))
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PullRequestEvent:
		h.handlePullRequest(r.Context(), w, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// handlePullRequest queues a review for opened, reopened and synchronize
// actions. Everything else is acknowledged and dropped so GitHub does not
// retry the delivery.
func (h *WebhookHandler) handlePullRequest(ctx context.Context, w http.ResponseWriter, event *github.PullRequestEvent) {
	reviewEvent, err := core.EventFromPullRequest(event)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedEvent) {
			h.logger.Debug("ignoring pull request event", "action", event.GetAction(), "repo", event.GetRepo().GetFullName())
			_, _ = fmt.Fprint(w, "Event ignored")
			return
		}
		h.logger.Error("invalid pull request event", "error", err, "repo", event.GetRepo().GetFullName())
		http.Error(w, "Invalid pull request event", http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(ctx, reviewEvent); err != nil {
		h.logger.Error("failed to dispatch review job", "error", err, "repo", reviewEvent.RepoFullName)
		http.Error(w, "Failed to start review job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("review job dispatched successfully", "repo", reviewEvent.RepoFullName, "pr", reviewEvent.PRNumber)
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Review job accepted")
}
