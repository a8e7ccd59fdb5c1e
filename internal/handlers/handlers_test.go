package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/auth"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/logger"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/policy"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/service"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/storage"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/validation"
)

type stubWriter struct {
	saved []storage.AssessmentInput
	err   error
}

func (s *stubWriter) SaveAssessment(_ context.Context, input storage.AssessmentInput) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, input)
	return nil
}

type stubAnalytics struct {
	ready  bool
	recent []models.Assessment
}

func (s *stubAnalytics) RecentAssessments(_ context.Context, limit int, repo string) []models.Assessment {
	return s.recent
}

func (s *stubAnalytics) RiskTrends(_ context.Context, repo string, days int) []models.TrendPoint {
	return []models.TrendPoint{}
}

func (s *stubAnalytics) SeverityDistribution(_ context.Context, days int, repo string) []models.SeverityCount {
	return []models.SeverityCount{}
}

func (s *stubAnalytics) TopFindings(_ context.Context, days int, repo string, limit int) []models.FindingCount {
	return []models.FindingCount{}
}

func (s *stubAnalytics) Ready(_ context.Context) bool {
	return s.ready
}

type stubFetcher struct {
	files []models.ChangedFile
	err   error
}

func (s *stubFetcher) FetchPullRequestFiles(_ context.Context, owner, repo string, prNumber int) ([]models.ChangedFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files, nil
}

type handlerEnv struct {
	handler   *Handler
	writer    *stubWriter
	analytics *stubAnalytics
	fetcher   *stubFetcher
}

func newHandlerEnv(policiesJSON, keysJSON, secret string) *handlerEnv {
	log := logger.New("error", "json")
	writer := &stubWriter{}
	analytics := &stubAnalytics{ready: true}
	fetcher := &stubFetcher{}

	assessor := service.NewAssessor(policy.NewEngine(policiesJSON), writer, nil, log)
	validator := validation.New(config.LimitsConfig{
		MaxFilesPerRequest: 500,
		MaxFilenameLength:  300,
		MaxPatchLength:     200000,
	})

	return &handlerEnv{
		handler:   New(assessor, analytics, fetcher, auth.NewKeyStore(keysJSON), validator, secret, log),
		writer:    writer,
		analytics: analytics,
		fetcher:   fetcher,
	}
}

func analyzeBody(t *testing.T, repo string, prNumber int, files []models.ChangedFile) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.AnalyzeRequest{Repo: repo, PRNumber: prNumber, Files: files})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestAnalyzeAllowed(t *testing.T) {
	env := newHandlerEnv("", "", "")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze",
		analyzeBody(t, "api", 7, []models.ChangedFile{{Filename: "docs/readme.md"}}))
	w := httptest.NewRecorder()

	env.handler.Analyze(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Score    int    `json:"score"`
		Severity string `json:"severity"`
		Policy   struct {
			Allowed bool `json:"allowed"`
		} `json:"policy"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Score)
	assert.Equal(t, "low", resp.Severity)
	assert.True(t, resp.Policy.Allowed)

	require.Len(t, env.writer.saved, 1)
	assert.Equal(t, "api", env.writer.saved[0].Repo)
}

func TestAnalyzeBlockedReturns409(t *testing.T) {
	env := newHandlerEnv(`[{"repo":"api","blockAtOrAbove":"low"}]`, "", "")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze",
		analyzeBody(t, "api", 7, []models.ChangedFile{{Filename: "main.go"}}))
	w := httptest.NewRecorder()

	env.handler.Analyze(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Blocked by policy")
}

func TestAnalyzeValidationFailure(t *testing.T) {
	env := newHandlerEnv("", "", "")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte(`{"repo":"api"}`)))
	w := httptest.NewRecorder()

	env.handler.Analyze(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.writer.saved)
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	env := newHandlerEnv("", "", "")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{broken")))
	w := httptest.NewRecorder()

	env.handler.Analyze(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeOversizedBodyReturns413(t *testing.T) {
	env := newHandlerEnv("", "", "")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze",
		analyzeBody(t, "api", 7, []models.ChangedFile{{Filename: "main.go"}}))
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 8)

	env.handler.Analyze(w, r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, env.writer.saved)
}

func TestAnalyzeStorageFailureReturns500(t *testing.T) {
	env := newHandlerEnv("", "", "")
	env.writer.err = errors.New("db down")

	r := httptest.NewRequest(http.MethodPost, "/api/analyze",
		analyzeBody(t, "api", 7, []models.ChangedFile{{Filename: "main.go"}}))
	w := httptest.NewRecorder()

	env.handler.Analyze(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func webhookRequest(t *testing.T, secret, event string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
	r.Header.Set("X-GitHub-Event", event)

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		r.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	return r
}

func prPayload(action string) map[string]interface{} {
	return map[string]interface{}{
		"action":       action,
		"pull_request": map[string]interface{}{"number": 12},
		"repository": map[string]interface{}{
			"name":  "api",
			"owner": map[string]interface{}{"login": "octo"},
		},
	}
}

func TestWebhookAssessesPullRequest(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")
	env.fetcher.files = []models.ChangedFile{{Filename: "src/auth/jwt.go", Patch: "+ token"}}

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "hook-secret", "pull_request", prPayload("opened")))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"webhook"`)
	require.Len(t, env.writer.saved, 1)
	assert.Equal(t, "api", env.writer.saved[0].Repo)
	assert.Equal(t, 12, env.writer.saved[0].PRNumber)
}

func TestWebhookInvalidSignature(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")

	r := webhookRequest(t, "", "pull_request", prPayload("opened"))
	r.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(make([]byte, 32)))

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, env.writer.saved)
}

func TestWebhookMissingSignatureWithSecret(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "", "pull_request", prPayload("opened")))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookOversizedBodyReturns413(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")

	r := webhookRequest(t, "hook-secret", "pull_request", prPayload("opened"))
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	env.handler.GitHubWebhook(w, r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, env.writer.saved)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "hook-secret", "push", prPayload("opened")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
	assert.Empty(t, env.writer.saved)
}

func TestWebhookIgnoresIrrelevantActions(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")

	for _, action := range []string{"closed", "labeled", "edited"} {
		w := httptest.NewRecorder()
		env.handler.GitHubWebhook(w, webhookRequest(t, "hook-secret", "pull_request", prPayload(action)))

		assert.Equal(t, http.StatusOK, w.Code, action)
		assert.Contains(t, w.Body.String(), "ignored", action)
	}

	assert.Empty(t, env.writer.saved)
}

func TestWebhookUpstreamFailureReturns500(t *testing.T) {
	env := newHandlerEnv("", "", "hook-secret")
	env.fetcher.err = errors.New("GitHub API error 502: upstream broke")

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "hook-secret", "pull_request", prPayload("synchronize")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "webhook processing failed")
}

func TestWebhookBlockedReturns409(t *testing.T) {
	env := newHandlerEnv(`[{"repo":"api","blockAtOrAbove":"low"}]`, "", "hook-secret")
	env.fetcher.files = []models.ChangedFile{{Filename: "main.go"}}

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "hook-secret", "pull_request", prPayload("reopened")))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWebhookRequiresAuthWhenKeysConfigured(t *testing.T) {
	// No secret, no key presented: the webhook route must not be open
	// while the rest of the API is locked down.
	env := newHandlerEnv("", `[{"key":"writer","role":"write"}]`, "")

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, webhookRequest(t, "", "pull_request", prPayload("opened")))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAcceptsWriteKey(t *testing.T) {
	env := newHandlerEnv("", `[{"key":"writer","role":"write"}]`, "")
	env.fetcher.files = []models.ChangedFile{{Filename: "main.go"}}

	r := webhookRequest(t, "", "pull_request", prPayload("opened"))
	r.Header.Set("X-API-Key", "writer")

	w := httptest.NewRecorder()
	env.handler.GitHubWebhook(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newHandlerEnv("", "", "")

	w := httptest.NewRecorder()
	env.handler.Live(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.handler.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	env.analytics.ready = false

	w = httptest.NewRecorder()
	env.handler.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	env.handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Liveness is independent of storage.
	w = httptest.NewRecorder()
	env.handler.Live(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsQueryParamCaps(t *testing.T) {
	env := newHandlerEnv("", "", "")

	w := httptest.NewRecorder()
	env.handler.Trends(w, httptest.NewRequest(http.MethodGet, "/api/trends?days=4000", nil))
	assert.Contains(t, w.Body.String(), `"days":365`)

	w = httptest.NewRecorder()
	env.handler.Trends(w, httptest.NewRequest(http.MethodGet, "/api/trends?days=junk", nil))
	assert.Contains(t, w.Body.String(), `"days":30`)

	w = httptest.NewRecorder()
	env.handler.Recent(w, httptest.NewRequest(http.MethodGet, "/api/recent?limit=999", nil))
	assert.Contains(t, w.Body.String(), `"limit":100`)

	w = httptest.NewRecorder()
	env.handler.Recent(w, httptest.NewRequest(http.MethodGet, "/api/recent", nil))
	assert.Contains(t, w.Body.String(), `"limit":20`)
}

func TestStatsRepoLabel(t *testing.T) {
	env := newHandlerEnv("", "", "")

	w := httptest.NewRecorder()
	env.handler.Severity(w, httptest.NewRequest(http.MethodGet, "/api/severity", nil))
	assert.Contains(t, w.Body.String(), `"repo":"all"`)

	w = httptest.NewRecorder()
	env.handler.Findings(w, httptest.NewRequest(http.MethodGet, "/api/findings?repo=api", nil))
	assert.Contains(t, w.Body.String(), `"repo":"api"`)
}
