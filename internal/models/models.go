package models

// ChangedFile represents one file touched by a pull request
type ChangedFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status,omitempty"`
	Patch    string `json:"patch,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Repo     string        `json:"repo"`
	Owner    string        `json:"owner,omitempty"`
	PRNumber int           `json:"prNumber"`
	Files    []ChangedFile `json:"files"`
}
