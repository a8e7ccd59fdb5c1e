package handlers

import "net/http"

// Recent returns the latest assessments
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	repo := queryRepo(r)
	limit := queryLimit(r)

	rows := h.analytics.RecentAssessments(r.Context(), limit, repo)

	h.writeJSON(w, map[string]interface{}{
		"limit": limit,
		"rows":  rows,
	}, http.StatusOK)
}

// Trends returns per-day score aggregates over the requested window
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	repo := queryRepo(r)
	days := queryDays(r)

	trends := h.analytics.RiskTrends(r.Context(), repo, days)

	h.writeJSON(w, map[string]interface{}{
		"repo":   repoLabel(repo),
		"days":   days,
		"trends": trends,
	}, http.StatusOK)
}

// Severity returns the severity distribution over the requested window
func (h *Handler) Severity(w http.ResponseWriter, r *http.Request) {
	repo := queryRepo(r)
	days := queryDays(r)

	rows := h.analytics.SeverityDistribution(r.Context(), days, repo)

	h.writeJSON(w, map[string]interface{}{
		"repo": repoLabel(repo),
		"days": days,
		"rows": rows,
	}, http.StatusOK)
}

// topFindingsLimit is how many finding labels the findings endpoint returns
const topFindingsLimit = 8

// Findings returns the most frequent finding labels over the window
func (h *Handler) Findings(w http.ResponseWriter, r *http.Request) {
	repo := queryRepo(r)
	days := queryDays(r)

	rows := h.analytics.TopFindings(r.Context(), days, repo, topFindingsLimit)

	h.writeJSON(w, map[string]interface{}{
		"repo": repoLabel(repo),
		"days": days,
		"rows": rows,
	}, http.StatusOK)
}
