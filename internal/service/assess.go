package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/github"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/policy"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/risk"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/storage"
)

// commentTimeout bounds the best-effort PR comment call
const commentTimeout = 30 * time.Second

// AssessmentWriter persists one assessment
type AssessmentWriter interface {
	SaveAssessment(ctx context.Context, input storage.AssessmentInput) error
}

// CommentPoster posts the result back to the pull request
type CommentPoster interface {
	PostComment(ctx context.Context, owner, repo string, prNumber int, body string) error
}

// Outcome is the result of one assess-and-persist operation
type Outcome struct {
	Result   risk.Result
	Decision policy.Decision
}

// Assessor composes rule engine, policy engine, and store into one atomic
// assess-and-persist operation
type Assessor struct {
	policies *policy.Engine
	store    AssessmentWriter
	comments CommentPoster
	log      *logger.Logger
}

// NewAssessor wires the orchestrator. comments may be nil to disable
// outbound PR comments.
func NewAssessor(policies *policy.Engine, store AssessmentWriter, comments CommentPoster, log *logger.Logger) *Assessor {
	return &Assessor{
		policies: policies,
		store:    store,
		comments: comments,
		log:      log,
	}
}

// Assess evaluates the changed files, decides the policy outcome, and
// persists the assessment. The decision is only authoritative once it is
// durable, so a write failure fails the whole operation.
func (a *Assessor) Assess(ctx context.Context, repo string, prNumber int, files []models.ChangedFile) (*Outcome, *apperrors.AppError) {
	result := risk.Evaluate(files)
	decision := a.policies.Decide(repo, result.Severity)

	err := a.store.SaveAssessment(ctx, storage.AssessmentInput{
		Repo:     repo,
		PRNumber: prNumber,
		Score:    result.Score,
		Severity: string(result.Severity),
		Findings: result.Findings,
	})
	if err != nil {
		a.log.Error("failed to persist assessment", err)
		return nil, apperrors.StorageError(err)
	}

	return &Outcome{Result: result, Decision: decision}, nil
}

// PostCommentAsync fires the PR comment without blocking the response.
// It must only be called after Assess returned successfully; a comment
// failure never alters the already-persisted decision.
func (a *Assessor) PostCommentAsync(owner, repo string, prNumber int, outcome *Outcome) {
	if a.comments == nil || owner == "" {
		return
	}

	body := github.FormatComment(outcome.Result, outcome.Decision)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commentTimeout)
		defer cancel()

		if err := a.comments.PostComment(ctx, owner, repo, prNumber, body); err != nil {
			if errors.Is(err, github.ErrNoToken) {
				a.log.Debugf("skipping PR comment for %s/%s#%d: no token configured", owner, repo, prNumber)
				return
			}
			a.log.Warnf("failed to post PR comment for %s/%s#%d: %v", owner, repo, prNumber, err)
		}
	}()
}
