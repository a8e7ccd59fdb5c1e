package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

func TestEvaluateNoMatches(t *testing.T) {
	result := Evaluate([]models.ChangedFile{
		{Filename: "README.md", Patch: "+ docs update"},
	})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, SeverityLow, result.Severity)
	assert.Empty(t, result.Findings)
	assert.Empty(t, result.Recommendations)
}

func TestEvaluateAuthChange(t *testing.T) {
	result := Evaluate([]models.ChangedFile{
		{Filename: "src/auth/jwt.ts", Patch: "+ const token = sign(payload, secret)"},
	})

	assert.Greater(t, result.Score, 20)
	require.NotEmpty(t, result.Findings)
	assert.Contains(t, result.Findings, "Authentication/authorization-related code changed")
}

func TestEvaluateDeduplicatesLabelsButAccumulatesPoints(t *testing.T) {
	files := []models.ChangedFile{
		{Filename: "a.go", Patch: "+ SELECT * FROM users"},
		{Filename: "b.go", Patch: "+ SELECT * FROM orders"},
	}

	result := Evaluate(files)

	// Two firings of the same rule: points added twice, labels once.
	assert.Equal(t, 32, result.Score)
	assert.Len(t, result.Findings, 1)
	assert.Len(t, result.Recommendations, 1)
}

func TestEvaluateScoreClampedAt100(t *testing.T) {
	files := make([]models.ChangedFile, 0, 100)
	for i := 0; i < 100; i++ {
		files = append(files, models.ChangedFile{
			Filename: fmt.Sprintf("pkg/file%d.go", i),
			Patch:    "+ SELECT id FROM accounts",
		})
	}

	result := Evaluate(files)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, SeverityCritical, result.Severity)
}

func TestEvaluateHighFileCountBonus(t *testing.T) {
	files := make([]models.ChangedFile, 0, 26)
	for i := 0; i < 26; i++ {
		files = append(files, models.ChangedFile{Filename: fmt.Sprintf("docs/page%d.md", i)})
	}

	result := Evaluate(files)

	assert.Equal(t, 10, result.Score)
	assert.Contains(t, result.Findings, "High file-count change set")
}

func TestEvaluateTestDeletionRequiresTestFilename(t *testing.T) {
	deletionPatch := "- it(\"does the thing\", () => {})"

	withTestName := Evaluate([]models.ChangedFile{
		{Filename: "api.spec.ts", Patch: deletionPatch},
	})
	assert.Contains(t, withTestName.Findings, "Test deletions detected")

	withoutTestName := Evaluate([]models.ChangedFile{
		{Filename: "api.go", Patch: deletionPatch},
	})
	assert.NotContains(t, withoutTestName.Findings, "Test deletions detected")
}

func TestEvaluateLargeAddition(t *testing.T) {
	patch := ""
	for i := 0; i < 251; i++ {
		patch += "+ x\n"
	}

	result := Evaluate([]models.ChangedFile{{Filename: "gen/big.go", Patch: patch}})

	assert.Contains(t, result.Findings, "Large code additions in single file")
}

func TestEvaluateInfraAndLockfileRules(t *testing.T) {
	result := Evaluate([]models.ChangedFile{
		{Filename: ".github/workflows/ci.yml"},
		{Filename: "package-lock.json"},
	})

	assert.Equal(t, 24, result.Score)
	assert.Contains(t, result.Findings, "Infrastructure/CI configuration changed")
	assert.Contains(t, result.Findings, "Dependency changes detected")
}

func TestSeverityForBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Severity
	}{
		{0, SeverityLow},
		{29, SeverityLow},
		{30, SeverityMedium},
		{59, SeverityMedium},
		{60, SeverityHigh},
		{79, SeverityHigh},
		{80, SeverityCritical},
		{100, SeverityCritical},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityFor(tc.score), "score %d", tc.score)
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
}
