package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/auth"
	apperrors "github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
)

// RequireRead gates read endpoints. The repo scope target comes from the
// query string.
func (m *Middleware) RequireRead(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo := r.URL.Query().Get("repo")

		if appErr := m.keys.Authorize(auth.RoleRead, auth.ExtractKey(r), repo); appErr != nil {
			m.writeAuthError(w, appErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireWrite gates write endpoints. The repo scope target comes from the
// request body, which is re-buffered so the handler can still decode it.
func (m *Middleware) RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo := ""

		if m.keys.Enabled() && r.Body != nil {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					m.writeAuthError(w, apperrors.PayloadTooLarge())
					return
				}
				m.writeAuthError(w, apperrors.InvalidRequest("failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var probe struct {
				Repo string `json:"repo"`
			}
			// Malformed JSON is the handler's problem; scope checks
			// only need the repo field when it is present.
			_ = json.Unmarshal(body, &probe)
			repo = probe.Repo
		}

		if appErr := m.keys.Authorize(auth.RoleWrite, auth.ExtractKey(r), repo); appErr != nil {
			m.writeAuthError(w, appErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) writeAuthError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": appErr.Message})
}
