package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/auth"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/github"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/middleware"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

// GitHubWebhook ingests pull_request events. Authenticity comes from the
// HMAC signature over the raw payload bytes (or a write-role API key);
// only opened/synchronize/reopened actions trigger an assessment.
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeAppError(w, bodyError(err))
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")

	if !h.webhookAccessAllowed(r, body, signature) {
		h.writeAppError(w, errors.Unauthorized("webhook auth required"))
		return
	}

	if !github.ValidSignature(h.webhookSecret, body, signature) {
		h.log.Warn("invalid webhook signature")
		h.writeAppError(w, errors.InvalidSignature())
		return
	}

	if r.Header.Get("X-GitHub-Event") != "pull_request" {
		h.writeJSON(w, map[string]string{"status": "ignored"}, http.StatusOK)
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid webhook payload: "+err.Error()))
		return
	}

	prCtx := payload.PRContext()
	if prCtx == nil {
		h.writeJSON(w, map[string]string{"status": "ignored"}, http.StatusOK)
		return
	}

	files, err := h.fetcher.FetchPullRequestFiles(r.Context(), prCtx.Owner, prCtx.Repo, prCtx.PRNumber)
	if err != nil {
		h.log.Error("failed to fetch changed files", err)
		h.writeJSON(w, &models.ErrorResponse{
			Error:   "webhook processing failed",
			Details: err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	outcome, appErr := h.assessor.Assess(r.Context(), prCtx.Repo, prCtx.PRNumber, files)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	h.assessor.PostCommentAsync(prCtx.Owner, prCtx.Repo, prCtx.PRNumber, outcome)

	h.log.With("request_id", middleware.GetRequestID(r.Context())).
		With("repo", prCtx.Repo).
		With("pr_number", prCtx.PRNumber).
		With("score", outcome.Result.Score).
		With("severity", outcome.Result.Severity).
		With("allowed", outcome.Decision.Allowed).
		Info("webhook analysis complete")

	status := http.StatusAccepted
	if !outcome.Decision.Allowed {
		status = http.StatusConflict
	}

	h.writeJSON(w, analyzeResponse{
		Result: outcome.Result,
		Policy: outcome.Decision,
		Source: "webhook",
	}, status)
}

// webhookAccessAllowed mirrors the write-route gate for webhooks: with API
// keys configured, either a write-role key or a verifiable signature must
// be present before the payload is processed.
func (h *Handler) webhookAccessAllowed(r *http.Request, body []byte, signature string) bool {
	if !h.keys.Enabled() {
		return true
	}

	if token := auth.ExtractKey(r); token != "" {
		if key := h.keys.Lookup(token); key != nil && key.Role == auth.RoleWrite {
			return true
		}
	}

	return h.webhookSecret != "" && github.ValidSignature(h.webhookSecret, body, signature)
}
