package handlers

import (
	"context"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/auth"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/policy"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/risk"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/service"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/validation"
)

// AnalyticsReader serves the dashboard aggregation queries. Reads degrade
// to empty results on storage failure, so none of these return errors.
type AnalyticsReader interface {
	RecentAssessments(ctx context.Context, limit int, repo string) []models.Assessment
	RiskTrends(ctx context.Context, repo string, days int) []models.TrendPoint
	SeverityDistribution(ctx context.Context, days int, repo string) []models.SeverityCount
	TopFindings(ctx context.Context, days int, repo string, limit int) []models.FindingCount
	Ready(ctx context.Context) bool
}

// FileFetcher retrieves a pull request's changed files from GitHub
type FileFetcher interface {
	FetchPullRequestFiles(ctx context.Context, owner, repo string, prNumber int) ([]models.ChangedFile, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	assessor      *service.Assessor
	analytics     AnalyticsReader
	fetcher       FileFetcher
	keys          *auth.KeyStore
	validator     *validation.Validator
	webhookSecret string
	log           *logger.Logger
}

// New creates a new handler instance
func New(
	assessor *service.Assessor,
	analytics AnalyticsReader,
	fetcher FileFetcher,
	keys *auth.KeyStore,
	validator *validation.Validator,
	webhookSecret string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		assessor:      assessor,
		analytics:     analytics,
		fetcher:       fetcher,
		keys:          keys,
		validator:     validator,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// analyzeResponse is the shared response shape of the analyze and webhook
// routes
type analyzeResponse struct {
	risk.Result
	Policy policy.Decision `json:"policy"`
	Source string          `json:"source,omitempty"`
}
