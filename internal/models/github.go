package models

// PullRequestFile is one entry of the GitHub "list pull request files" API
type PullRequestFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status,omitempty"`
	Patch    string `json:"patch,omitempty"`
}

// WebhookPayload is the subset of the GitHub pull_request event we care about
type WebhookPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// WebhookPRContext is extracted from a verified pull_request payload
type WebhookPRContext struct {
	Action   string
	Owner    string
	Repo     string
	PRNumber int
}

// webhook actions that trigger an assessment
var relevantActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// PRContext validates the payload and extracts the assessment context.
// Returns nil for irrelevant actions or incomplete payloads; callers
// acknowledge those as "ignored".
func (p *WebhookPayload) PRContext() *WebhookPRContext {
	if !relevantActions[p.Action] {
		return nil
	}

	if p.PullRequest.Number <= 0 || p.Repository.Name == "" || p.Repository.Owner.Login == "" {
		return nil
	}

	return &WebhookPRContext{
		Action:   p.Action,
		Owner:    p.Repository.Owner.Login,
		Repo:     p.Repository.Name,
		PRNumber: p.PullRequest.Number,
	}
}
