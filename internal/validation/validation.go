package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

var (
	// repo and owner names: GitHub-safe characters, bounded length
	repoNamePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
	ownerNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// Validator provides validation for analyze requests
type Validator struct {
	limits config.LimitsConfig
}

// New creates a validator with the configured payload limits
func New(limits config.LimitsConfig) *Validator {
	return &Validator{limits: limits}
}

// ValidateAnalyzeRequest validates a direct-submission analyze request
func (v *Validator) ValidateAnalyzeRequest(req *models.AnalyzeRequest) *errors.AppError {
	if req == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if req.Repo == "" || req.PRNumber == 0 || len(req.Files) == 0 {
		return errors.ValidationError("repo, prNumber, and non-empty files are required")
	}

	if !repoNamePattern.MatchString(req.Repo) {
		return errors.ValidationError("repo must match [A-Za-z0-9._-] and be <= 100 chars")
	}

	if req.PRNumber <= 0 {
		return errors.ValidationError("prNumber must be a positive integer")
	}

	if req.Owner != "" && !ownerNamePattern.MatchString(req.Owner) {
		return errors.ValidationError("owner must match [A-Za-z0-9._-] and be <= 100 chars")
	}

	if len(req.Files) > v.limits.MaxFilesPerRequest {
		return errors.ValidationError(fmt.Sprintf("files exceeds max allowed (%d)", v.limits.MaxFilesPerRequest))
	}

	for _, file := range req.Files {
		if !v.IsValidFilename(file.Filename) {
			return errors.ValidationError("each file must include a valid, safe filename")
		}

		if len(file.Patch) > v.limits.MaxPatchLength {
			return errors.ValidationError(fmt.Sprintf("patch must be a string <= %d chars", v.limits.MaxPatchLength))
		}
	}

	return nil
}

// IsValidFilename rejects filenames that are empty, too long, absolute,
// traversal-shaped, or carry control characters
func (v *Validator) IsValidFilename(filename string) bool {
	if filename == "" || len(filename) > v.limits.MaxFilenameLength {
		return false
	}

	if strings.ContainsAny(filename, "\\\x00") {
		return false
	}

	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "~") {
		return false
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return false
		}
	}

	for _, segment := range strings.Split(filename, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}

	return true
}
