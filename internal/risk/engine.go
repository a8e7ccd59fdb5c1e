package risk

import (
	"regexp"
	"strings"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

// Severity is the ordinal risk tier derived from a score
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal rank of a severity (low=1 .. critical=4).
// Unknown severities rank highest so a corrupt value never slips past a
// policy threshold.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 4
	}
}

// Result is the outcome of evaluating one changed-file set
type Result struct {
	Score           int      `json:"score"`
	Severity        Severity `json:"severity"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

// rule is one independent risk predicate with its weight and labels
type rule struct {
	match          func(f models.ChangedFile) bool
	points         int
	finding        string
	recommendation string
}

var (
	reAuth         = regexp.MustCompile(`(?i)auth|jwt|session|permission|rbac|middleware`)
	reSQLPatch     = regexp.MustCompile(`(?i)sql|query\(|where\(|select\s|insert\s|delete\s|update\s`)
	reMigrations   = regexp.MustCompile(`(?i)migrations?/`)
	reInfra        = regexp.MustCompile(`(?i)\.github/workflows|dockerfile|docker-compose|k8s|terraform|helm`)
	reLockfile     = regexp.MustCompile(`(?i)package-lock\.json|pnpm-lock\.yaml|yarn\.lock|requirements\.txt|poetry\.lock`)
	reTestDeletion = regexp.MustCompile(`(?i)-\s*it\(|-\s*test\(|-\s*describe\(`)
	reTestFile     = regexp.MustCompile(`(?i)test|spec`)
)

const (
	// largeAdditionThreshold is the number of added lines in a single
	// file's patch above which the large-addition rule fires.
	largeAdditionThreshold = 250

	// highFileCountThreshold is the change-set size above which the
	// cross-file bonus applies.
	highFileCountThreshold = 25

	highFileCountPoints = 10

	maxScore = 100
)

var rules = []rule{
	{
		match: func(f models.ChangedFile) bool {
			return reAuth.MatchString(f.Filename + f.Patch)
		},
		points:         22,
		finding:        "Authentication/authorization-related code changed",
		recommendation: "Require security review and add auth regression tests",
	},
	{
		match: func(f models.ChangedFile) bool {
			return reSQLPatch.MatchString(f.Patch) || reMigrations.MatchString(f.Filename)
		},
		points:         16,
		finding:        "Database query or migration changes detected",
		recommendation: "Validate query safety/performance and run migration in staging first",
	},
	{
		match: func(f models.ChangedFile) bool {
			return reInfra.MatchString(f.Filename)
		},
		points:         14,
		finding:        "Infrastructure/CI configuration changed",
		recommendation: "Require DevOps review before merge",
	},
	{
		match: func(f models.ChangedFile) bool {
			return reLockfile.MatchString(f.Filename)
		},
		points:         10,
		finding:        "Dependency changes detected",
		recommendation: "Run dependency vulnerability scan",
	},
	{
		match: func(f models.ChangedFile) bool {
			return reTestDeletion.MatchString(f.Patch) && reTestFile.MatchString(f.Filename)
		},
		points:         12,
		finding:        "Test deletions detected",
		recommendation: "Block merge unless equivalent tests are added",
	},
	{
		match: func(f models.ChangedFile) bool {
			return countAddedLines(f.Patch) > largeAdditionThreshold
		},
		points:         14,
		finding:        "Large code additions in single file",
		recommendation: "Split PR or require senior reviewer",
	},
}

func countAddedLines(patch string) int {
	if patch == "" {
		return 0
	}

	count := 0
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+") {
			count++
		}
	}
	return count
}

// SeverityFor maps a clamped score to its severity tier
func SeverityFor(score int) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Evaluate runs every rule against every file. A rule adds its points once
// per matching file but contributes its finding/recommendation labels only
// once. The reported score is clamped to [0, 100].
func Evaluate(files []models.ChangedFile) Result {
	score := 0
	findings := make([]string, 0)
	recommendations := make([]string, 0)
	seen := make(map[string]bool)

	addLabels := func(finding, recommendation string) {
		if seen[finding] {
			return
		}
		seen[finding] = true
		findings = append(findings, finding)
		recommendations = append(recommendations, recommendation)
	}

	for _, file := range files {
		for _, r := range rules {
			if r.match(file) {
				score += r.points
				addLabels(r.finding, r.recommendation)
			}
		}
	}

	if len(files) > highFileCountThreshold {
		score += highFileCountPoints
		addLabels("High file-count change set", "Break PR into smaller reviewable chunks")
	}

	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}

	return Result{
		Score:           score,
		Severity:        SeverityFor(score),
		Findings:        findings,
		Recommendations: recommendations,
	}
}
