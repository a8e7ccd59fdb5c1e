package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/middleware"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

// Analyze handles direct risk assessment submissions
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAppError(w, bodyError(err))
		return
	}

	if appErr := h.validator.ValidateAnalyzeRequest(&req); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	outcome, appErr := h.assessor.Assess(r.Context(), req.Repo, req.PRNumber, req.Files)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	// Best effort, and only after the decision is durable.
	h.assessor.PostCommentAsync(req.Owner, req.Repo, req.PRNumber, outcome)

	h.log.With("request_id", middleware.GetRequestID(r.Context())).
		With("repo", req.Repo).
		With("pr_number", req.PRNumber).
		With("score", outcome.Result.Score).
		With("severity", outcome.Result.Severity).
		With("allowed", outcome.Decision.Allowed).
		Info("analysis complete")

	status := http.StatusOK
	if !outcome.Decision.Allowed {
		status = http.StatusConflict
	}

	h.writeJSON(w, analyzeResponse{Result: outcome.Result, Policy: outcome.Decision}, status)
}
