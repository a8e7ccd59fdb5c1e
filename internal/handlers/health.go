package handlers

import (
	"net/http"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

const serviceName = "ai-pr-risk-gate"

// Live always reports healthy; it only proves the process is serving
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, &models.HealthResponse{OK: true, Service: serviceName, Check: "live"}, http.StatusOK)
}

// Ready reflects storage reachability
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready(r.Context()) {
		h.writeJSON(w, &models.HealthResponse{OK: false, Service: serviceName, Check: "ready", DB: "down"}, http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, &models.HealthResponse{OK: true, Service: serviceName, Check: "ready", DB: "up"}, http.StatusOK)
}

// Health is the combined health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready(r.Context()) {
		h.writeJSON(w, &models.HealthResponse{OK: false, Service: serviceName, DB: "down"}, http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, &models.HealthResponse{OK: true, Service: serviceName, DB: "up"}, http.StatusOK)
}
