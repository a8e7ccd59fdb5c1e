package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

// AssessmentInput is what gets persisted for one analysis
type AssessmentInput struct {
	Repo     string
	PRNumber int
	Score    int
	Severity string
	Findings []string
}

// Store persists and aggregates risk assessments. Every operation runs
// under the retrier's per-attempt timeout and transient-failure retry.
// Writes propagate final failure; reads degrade to empty results so the
// dashboard endpoints stay available when the database is flaky.
type Store struct {
	db    *sql.DB
	retry retrier
	log   *logger.Logger
}

// NewStore wraps the database with the configured resilience knobs
func NewStore(db *sql.DB, cfg config.StorageConfig, log *logger.Logger) *Store {
	return &Store{
		db: db,
		retry: retrier{
			timeout:  cfg.QueryTimeout,
			attempts: cfg.MaxAttempts,
			base:     cfg.RetryBase,
		},
		log: log,
	}
}

// SaveAssessment inserts one assessment row. Failure after the retry
// budget is exhausted is returned to the caller.
func (s *Store) SaveAssessment(ctx context.Context, input AssessmentInput) error {
	findings, err := json.Marshal(input.Findings)
	if err != nil {
		return err
	}

	return s.retry.do(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`insert into risk_assessments (repo, pr_number, score, severity, findings)
			 values ($1, $2, $3, $4, $5::jsonb)`,
			input.Repo, input.PRNumber, input.Score, input.Severity, string(findings))
		return err
	})
}

// RecentAssessments returns the latest rows, optionally filtered by repo
func (s *Store) RecentAssessments(ctx context.Context, limit int, repo string) []models.Assessment {
	rows := make([]models.Assessment, 0)

	err := s.retry.do(ctx, func(ctx context.Context) error {
		result, err := s.db.QueryContext(ctx,
			`select id, repo, pr_number, score, severity, findings, created_at
			 from risk_assessments
			 where ($1 = '' or repo = $1)
			 order by created_at desc
			 limit $2`,
			repo, limit)
		if err != nil {
			return err
		}
		defer result.Close()

		rows = rows[:0]
		for result.Next() {
			var a models.Assessment
			var findings []byte
			if err := result.Scan(&a.ID, &a.Repo, &a.PRNumber, &a.Score, &a.Severity, &findings, &a.CreatedAt); err != nil {
				return err
			}
			if err := json.Unmarshal(findings, &a.Findings); err != nil {
				a.Findings = []string{}
			}
			rows = append(rows, a)
		}
		return result.Err()
	})
	if err != nil {
		s.log.Warnf("recent assessments query degraded to empty result: %v", err)
		return []models.Assessment{}
	}

	return rows
}

// RiskTrends returns per-day average score and assessment count
func (s *Store) RiskTrends(ctx context.Context, repo string, days int) []models.TrendPoint {
	points := make([]models.TrendPoint, 0)

	err := s.retry.do(ctx, func(ctx context.Context) error {
		result, err := s.db.QueryContext(ctx,
			`select to_char(date_trunc('day', created_at), 'YYYY-MM-DD') as day,
			        avg(score)::float8 as avg_score,
			        count(*) as cnt
			 from risk_assessments
			 where ($1 = '' or repo = $1)
			   and created_at > now() - make_interval(days => $2)
			 group by 1
			 order by 1`,
			repo, days)
		if err != nil {
			return err
		}
		defer result.Close()

		points = points[:0]
		for result.Next() {
			var p models.TrendPoint
			if err := result.Scan(&p.Day, &p.AvgScore, &p.Count); err != nil {
				return err
			}
			points = append(points, p)
		}
		return result.Err()
	})
	if err != nil {
		s.log.Warnf("risk trends query degraded to empty result: %v", err)
		return []models.TrendPoint{}
	}

	return points
}

// SeverityDistribution returns assessment counts per severity tier
func (s *Store) SeverityDistribution(ctx context.Context, days int, repo string) []models.SeverityCount {
	counts := make([]models.SeverityCount, 0)

	err := s.retry.do(ctx, func(ctx context.Context) error {
		result, err := s.db.QueryContext(ctx,
			`select severity, count(*) as cnt
			 from risk_assessments
			 where ($1 = '' or repo = $1)
			   and created_at > now() - make_interval(days => $2)
			 group by severity
			 order by cnt desc`,
			repo, days)
		if err != nil {
			return err
		}
		defer result.Close()

		counts = counts[:0]
		for result.Next() {
			var c models.SeverityCount
			if err := result.Scan(&c.Severity, &c.Count); err != nil {
				return err
			}
			counts = append(counts, c)
		}
		return result.Err()
	})
	if err != nil {
		s.log.Warnf("severity distribution query degraded to empty result: %v", err)
		return []models.SeverityCount{}
	}

	return counts
}

// TopFindings returns the most frequent finding labels
func (s *Store) TopFindings(ctx context.Context, days int, repo string, limit int) []models.FindingCount {
	counts := make([]models.FindingCount, 0)

	err := s.retry.do(ctx, func(ctx context.Context) error {
		result, err := s.db.QueryContext(ctx,
			`select f.finding, count(*) as cnt
			 from risk_assessments a,
			      jsonb_array_elements_text(a.findings) as f(finding)
			 where ($1 = '' or a.repo = $1)
			   and a.created_at > now() - make_interval(days => $2)
			 group by f.finding
			 order by cnt desc
			 limit $3`,
			repo, days, limit)
		if err != nil {
			return err
		}
		defer result.Close()

		counts = counts[:0]
		for result.Next() {
			var c models.FindingCount
			if err := result.Scan(&c.Finding, &c.Count); err != nil {
				return err
			}
			counts = append(counts, c)
		}
		return result.Err()
	})
	if err != nil {
		s.log.Warnf("top findings query degraded to empty result: %v", err)
		return []models.FindingCount{}
	}

	return counts
}

// Ready reports whether the database answers a trivial query
func (s *Store) Ready(ctx context.Context) bool {
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var one int
		return s.db.QueryRowContext(ctx, "select 1").Scan(&one)
	})
	if err != nil {
		s.log.Warnf("readiness probe failed: %v", err)
		return false
	}

	return true
}
