// Package api provides the HTTP client for the id8 backend REST API.
//
// The client covers the four collaborator operations the orchestrator
// depends on: fetching a single idea, listing all ideas, persisting a
// status change, and triggering the per-stage analysis jobs. Analysis
// triggers return as soon as the backend accepts the job; completion
// is only observable by re-fetching the idea record.
//
// Idempotent reads retry transient network errors with exponential
// backoff. Writes and job triggers are issued exactly once: the
// backend's job endpoints are idempotent to invoke, but retrying a
// failed trigger is the cascade's decision, not the transport's.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/id8-org/id8/internal/idea"
)

// DefaultTimeout bounds each individual HTTP request.
const DefaultTimeout = 30 * time.Second

// retryMaxElapsed bounds the total retry window for idempotent reads.
const retryMaxElapsed = 15 * time.Second

// jobPaths maps each job kind to its trigger endpoint under /ideas/{id}.
var jobPaths = map[idea.JobKind]string{
	idea.JobDeepDive:    "deepdive",
	idea.JobIterating:   "iterate",
	idea.JobConsidering: "consider",
	idea.JobClosure:     "close",
}

// Client talks to the id8 backend over HTTP.
//
// Create with [NewClient]. The zero value is not usable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, typically to
// point tests at an httptest server transport or to adjust timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each individual HTTP request, replacing
// [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the structured logger for request-level debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a backend client rooted at baseURL
// (e.g. "http://localhost:8000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newReadBackoff returns the retry schedule for idempotent reads.
// BackOff implementations are stateful; always return a fresh instance.
func newReadBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return backoff.WithContext(bo, ctx)
}

// FetchIdea returns the latest committed record for an idea id.
//
// Returns an error wrapping [idea.ErrNotFound] if the id does not
// exist in the store. Transient network errors are retried.
func (c *Client) FetchIdea(ctx context.Context, id string) (*idea.Idea, error) {
	it, err := backoff.RetryWithData(func() (*idea.Idea, error) {
		var it idea.Idea
		if err := c.get(ctx, c.ideaURL(id, ""), &it); err != nil {
			return nil, classifyReadErr(err)
		}
		return &it, nil
	}, newReadBackoff(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch idea %s: %w", id, err)
	}
	return it, nil
}

// ListIdeas returns every idea in the store. Used by the background
// reconciler; transient network errors are retried.
func (c *Client) ListIdeas(ctx context.Context) ([]idea.Idea, error) {
	return backoff.RetryWithData(func() ([]idea.Idea, error) {
		var ideas []idea.Idea
		if err := c.get(ctx, c.baseURL+"/ideas", &ideas); err != nil {
			return nil, classifyReadErr(err)
		}
		return ideas, nil
	}, newReadBackoff(ctx))
}

// statusPayload is the body of a status-change request. The closure
// reason rides along when an idea moves to closed.
type statusPayload struct {
	Status        idea.Stage `json:"status"`
	ClosureReason string     `json:"closure_reason,omitempty"`
}

// SetStatus persists a status change and returns the updated record.
//
// Returns an error wrapping [idea.ErrNotFound] if the idea no longer
// exists; the orchestrator treats that as the idea having vanished.
func (c *Client) SetStatus(ctx context.Context, id string, status idea.Stage, closureReason string) (*idea.Idea, error) {
	body, err := json.Marshal(statusPayload{Status: status, ClosureReason: closureReason})
	if err != nil {
		return nil, fmt.Errorf("encode status payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.ideaURL(id, "status"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var updated idea.Idea
	if err := c.do(req, &updated); err != nil {
		return nil, fmt.Errorf("set status of idea %s: %w", id, err)
	}
	c.log.Debug("status persisted", "idea_id", id, "status", status)
	return &updated, nil
}

// TriggerJob fires a background analysis job for an idea. The call
// returns once the backend has accepted the job, not when the job
// completes; completion is observed by re-fetching the record.
func (c *Client) TriggerJob(ctx context.Context, kind idea.JobKind, id string) error {
	path, ok := jobPaths[kind]
	if !ok {
		return fmt.Errorf("no trigger endpoint for job kind %q", kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ideaURL(id, path), nil)
	if err != nil {
		return err
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("trigger %s for idea %s: %w", kind, id, err)
	}
	c.log.Debug("job accepted", "idea_id", id, "job", kind)
	return nil
}

// ideaURL builds /ideas/{id} or /ideas/{id}/{sub}.
func (c *Client) ideaURL(id, sub string) string {
	u := c.baseURL + "/ideas/" + url.PathEscape(id)
	if sub != "" {
		u += "/" + sub
	}
	return u
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// do executes a request, maps error statuses, and decodes the body
// into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return idea.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// Include a bounded slice of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyReadErr marks non-retryable read failures as permanent so
// the backoff loop stops immediately. A missing idea will not appear
// by retrying, and a decode failure will not fix itself.
func classifyReadErr(err error) error {
	if isRetryableErr(err) {
		return err
	}
	return backoff.Permanent(err)
}

// isRetryableErr reports whether a read failure is a transient
// transport error worth retrying.
func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"unexpected eof",
		"no such host",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
