package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/risk"
)

// Wildcard matches any repository in a policy config
const Wildcard = "*"

// Config is one per-repository blocking threshold
type Config struct {
	Repo           string        `json:"repo"`
	BlockAtOrAbove risk.Severity `json:"blockAtOrAbove"`
}

// Decision is the allow/block outcome for one assessment
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// defaultConfig applies when no configured policy matches
var defaultConfig = Config{Repo: Wildcard, BlockAtOrAbove: risk.SeverityCritical}

// Engine resolves per-repository policies. The config list is immutable
// after construction and safe for concurrent use.
type Engine struct {
	configs []Config
}

// NewEngine parses the raw RISK_POLICIES_JSON value. Malformed input, an
// empty list, or entries with unknown severities silently fall back to the
// built-in default; policy resolution must never fail a request.
func NewEngine(rawJSON string) *Engine {
	return &Engine{configs: parseConfigs(rawJSON)}
}

func parseConfigs(raw string) []Config {
	if raw == "" {
		return []Config{defaultConfig}
	}

	var parsed []Config
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []Config{defaultConfig}
	}

	valid := make([]Config, 0, len(parsed))
	for _, c := range parsed {
		if c.Repo == "" || !validSeverity(c.BlockAtOrAbove) {
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) == 0 {
		return []Config{defaultConfig}
	}

	return valid
}

func validSeverity(s risk.Severity) bool {
	switch s {
	case risk.SeverityLow, risk.SeverityMedium, risk.SeverityHigh, risk.SeverityCritical:
		return true
	}
	return false
}

// pick resolves the applicable config: exact repo match, then wildcard,
// then the built-in default.
func (e *Engine) pick(repo string) Config {
	for _, c := range e.configs {
		if c.Repo == repo {
			return c
		}
	}

	for _, c := range e.configs {
		if c.Repo == Wildcard {
			return c
		}
	}

	return defaultConfig
}

// Decide maps (repo, severity) to an allow/block decision. Blocked when the
// severity rank reaches the resolved threshold rank.
func (e *Engine) Decide(repo string, severity risk.Severity) Decision {
	cfg := e.pick(repo)

	if severity.Rank() >= cfg.BlockAtOrAbove.Rank() {
		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf("Blocked by policy: severity %s >= %s threshold",
				strings.ToUpper(string(severity)), strings.ToUpper(string(cfg.BlockAtOrAbove))),
		}
	}

	return Decision{Allowed: true}
}
