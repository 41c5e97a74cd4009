// Package scorer is the HTTP client for the priority scoring service.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/secondary"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client implements secondary.Scorer against POST {base}/score.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// NewClient creates a scoring client. timeout bounds each call; zero means
// the caller's context is the only bound.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scoreResponse struct {
	PriorityScore *float64 `json:"priority_score"`
	Message       string   `json:"message"`
}

// Score posts the answers and returns the priority score. Every failure wraps
// secondary.ErrScoringUnavailable.
func (c *Client) Score(ctx context.Context, answers intake.Answers) (float64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("%w: encode answers: %v", secondary.ErrScoringUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", secondary.ErrScoringUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", secondary.ErrScoringUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", secondary.ErrScoringUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: status %d: %s", secondary.ErrScoringUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out scoreResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", secondary.ErrScoringUnavailable, err)
	}
	if out.PriorityScore == nil {
		return 0, fmt.Errorf("%w: response has no priority_score", secondary.ErrScoringUnavailable)
	}
	return *out.PriorityScore, nil
}

// Ensure Client implements the interface
var _ secondary.Scorer = (*Client)(nil)
