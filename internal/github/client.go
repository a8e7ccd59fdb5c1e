package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/emirsimsek00/ai-pr-risk-gate/internal/config"
	apperrors "github.com/emirsimsek00/ai-pr-risk-gate/internal/errors"
	"github.com/emirsimsek00/ai-pr-risk-gate/internal/models"
)

// perPage is the fixed page size for the pull request files endpoint
const perPage = 100

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 150 * time.Millisecond
)

// APIError carries the status and response body of a failed GitHub call
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error %d: %s", e.Status, e.Body)
}

// ErrNoToken is returned when a fetch is attempted without a credential
var ErrNoToken = apperrors.New(apperrors.ErrCodeMissingToken, "GITHUB_TOKEN is required for webhook-driven PR fetch")

// Client talks to the GitHub REST API
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	retryAttempts int
	retryBase     time.Duration
}

// NewClient creates a GitHub API client from configuration
func NewClient(cfg config.GitHubConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       cfg.APIBaseURL,
		token:         cfg.Token,
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
	}
}

// FetchPullRequestFiles retrieves every changed file of a pull request,
// paging at the fixed page size until a short page is seen. Ordering
// follows the remote API, concatenated across pages. Any non-success
// response aborts the whole fetch.
func (c *Client) FetchPullRequestFiles(ctx context.Context, owner, repo string, prNumber int) ([]models.ChangedFile, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	files := make([]models.ChangedFile, 0)

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, prNumber, perPage, page)

		var batch []models.PullRequestFile
		if err := c.getJSON(ctx, url, &batch); err != nil {
			return nil, err
		}

		for _, f := range batch {
			files = append(files, models.ChangedFile{
				Filename: f.Filename,
				Status:   f.Status,
				Patch:    f.Patch,
			})
		}

		if len(batch) < perPage {
			break
		}
	}

	return files, nil
}

// PostComment posts a comment on the pull request's issue thread
func (c *Client) PostComment(ctx context.Context, owner, repo string, prNumber int, body string) error {
	if c.token == "" {
		return ErrNoToken
	}

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, prNumber)

	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(out)
}

// doWithRetry performs the request, retrying transient failures (network
// errors, 408, 429, 5xx) with exponential backoff. Other non-success
// statuses fail immediately with an APIError.
func (c *Client) doWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	operation := func() (*http.Response, error) {
		req, err := newRequest()
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode < 200 || res.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
			res.Body.Close()

			apiErr := &APIError{Status: res.StatusCode, Body: string(body)}
			if !retriableStatus(res.StatusCode) {
				return nil, backoff.Permanent(apiErr)
			}
			return nil, apiErr
		}

		return res, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryBase

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.retryAttempts-1)), ctx)

	return backoff.RetryWithData(operation, policy)
}

func retriableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		(status >= 500 && status <= 599)
}
