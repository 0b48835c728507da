// Package jobs provides the uniform facade over the backend's four
// background analysis job triggers.
//
// Each trigger takes only the idea id and returns as soon as the job
// is accepted; there is no completion signal in the response. Firing
// the same job twice for one idea while an earlier invocation is still
// running is safe; the backend job system is responsible for that,
// the facade does not deduplicate.
//
// Job-internal failures never surface here. A non-nil error from
// [Client.Fire] always means the request itself failed (network or
// validation), reported as a [RequestError].
package jobs

import (
	"context"
	"fmt"

	"github.com/id8-org/id8/internal/idea"
)

// Trigger is the transport that delivers job-fire requests to the
// backend. The api client implements this interface.
type Trigger interface {
	TriggerJob(ctx context.Context, kind idea.JobKind, ideaID string) error
}

// RequestError indicates a job-fire request failed at the request
// level: the job was never accepted. The cascade executor recovers
// from this locally by recording the job as the cascade's failure.
type RequestError struct {
	// Kind is the job whose fire request failed.
	Kind idea.JobKind
	// Err is the underlying transport or validation error.
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fire %s job: %v", e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Client is the job facade used by the cascade executor.
type Client struct {
	trigger Trigger
}

// NewClient creates a job facade over the given transport.
func NewClient(trigger Trigger) *Client {
	return &Client{trigger: trigger}
}

// Fire requests that a background analysis job run for an idea.
//
// Fire returns once the job is accepted, not when it completes;
// completion is only observable by re-fetching the idea record.
// A failed request is reported as a [RequestError].
func (c *Client) Fire(ctx context.Context, kind idea.JobKind, ideaID string) error {
	if !kind.IsValid() {
		return &RequestError{Kind: kind, Err: fmt.Errorf("invalid job kind %q", kind)}
	}
	if err := c.trigger.TriggerJob(ctx, kind, ideaID); err != nil {
		return &RequestError{Kind: kind, Err: err}
	}
	return nil
}
