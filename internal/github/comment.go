package github

import (
	"fmt"
	"strings"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/policy"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/risk"
)

func severityIcon(severity risk.Severity) string {
	switch severity {
	case risk.SeverityCritical:
		return "🛑"
	case risk.SeverityHigh:
		return "🔴"
	case risk.SeverityMedium:
		return "🟠"
	default:
		return "🟢"
	}
}

// FormatComment renders the markdown PR comment for one assessment
func FormatComment(result risk.Result, decision policy.Decision) string {
	findings := "none"
	if len(result.Findings) > 0 {
		quoted := make([]string, 0, len(result.Findings))
		for _, f := range result.Findings {
			quoted = append(quoted, "`"+f+"`")
		}
		findings = strings.Join(quoted, ", ")
	}

	recommendations := "none"
	if len(result.Recommendations) > 0 {
		recommendations = strings.Join(result.Recommendations, "; ")
	}

	gate := "ALLOW ✅"
	if !decision.Allowed {
		gate = fmt.Sprintf("BLOCK ❌ (%s)", decision.Reason)
	}

	lines := []string{
		fmt.Sprintf("## %s PR Risk Gate Result", severityIcon(result.Severity)),
		fmt.Sprintf("- **Risk Score:** %d/100", result.Score),
		fmt.Sprintf("- **Severity:** %s", strings.ToUpper(string(result.Severity))),
		fmt.Sprintf("- **Findings:** %s", findings),
		fmt.Sprintf("- **Recommended checks:** %s", recommendations),
		fmt.Sprintf("- **Policy gate:** %s", gate),
	}

	return strings.Join(lines, "\n")
}
