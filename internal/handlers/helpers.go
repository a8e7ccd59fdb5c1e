package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

const (
	defaultDays  = 30
	maxDays      = 365
	defaultLimit = 20
	maxLimit     = 100
)

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode JSON response", err)
	}
}

// writeAppError writes an application error response
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	response := &models.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}

	h.log.With("error_code", appErr.Code).
		With("status_code", appErr.StatusCode).
		Error(appErr.Message, appErr.Err)

	h.writeJSON(w, response, appErr.StatusCode)
}

// bodyError maps a request body failure to a client error, distinguishing
// an over-limit body (413) from an unreadable or malformed one (400)
func bodyError(err error) *errors.AppError {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return errors.PayloadTooLarge()
	}
	return errors.InvalidRequest("Invalid request body: " + err.Error())
}

// queryDays parses the days window: default 30, capped at 365
func queryDays(r *http.Request) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return defaultDays
	}

	if days > maxDays {
		return maxDays
	}
	return days
}

// queryLimit parses the row limit: default 20, clamped to [1, 100]
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLimit
	}

	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// queryRepo returns the repo filter or "" for all repositories
func queryRepo(r *http.Request) string {
	return r.URL.Query().Get("repo")
}

// repoLabel names the filter in responses
func repoLabel(repo string) string {
	if repo == "" {
		return "all"
	}
	return repo
}
