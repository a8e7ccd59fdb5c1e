package models

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Check   string `json:"check,omitempty"`
	DB      string `json:"db,omitempty"`
}

// Assessment is one persisted risk assessment row
type Assessment struct {
	ID        int64     `json:"id"`
	Repo      string    `json:"repo"`
	PRNumber  int       `json:"prNumber"`
	Score     int       `json:"score"`
	Severity  string    `json:"severity"`
	Findings  []string  `json:"findings"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrendPoint is one day of aggregated assessments
type TrendPoint struct {
	Day      string  `json:"day"`
	AvgScore float64 `json:"avgScore"`
	Count    int     `json:"count"`
}

// SeverityCount is the number of assessments at one severity tier
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// FindingCount is the number of occurrences of one finding label
type FindingCount struct {
	Finding string `json:"finding"`
	Count   int    `json:"count"`
}
