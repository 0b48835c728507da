// Package poll provides the bounded completion poller used to observe
// asynchronous job results.
//
// The backend's analysis jobs report no completion signal; the only
// way to know a job finished is to re-fetch the idea record and test
// it. [Poller.Await] re-fetches on a fixed interval until a predicate
// is satisfied, the attempt budget is exhausted, or the surrounding
// context is cancelled. Cancellation stops the loop immediately, so no
// orphaned timers outlive an aborted cascade.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/id8-org/id8/internal/idea"
)

// Default polling policy: a fetch every 2s, 30 attempts, for a budget
// of roughly one minute.
const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
)

// Fetcher reads the latest committed idea record. The api client
// implements this interface.
type Fetcher interface {
	FetchIdea(ctx context.Context, id string) (*idea.Idea, error)
}

// Predicate tests whether a fetched record satisfies the awaited
// condition, e.g. a populated deep-dive payload.
type Predicate func(*idea.Idea) bool

// TimeoutError indicates the poller exhausted its attempt budget
// without the predicate ever being satisfied.
type TimeoutError struct {
	IdeaID   string
	Attempts int

	// Err is the last fetch error, set when the final attempt failed on
	// the transport rather than on the predicate.
	Err error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("idea %s: condition not met after %d polls", e.IdeaID, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// errNotReady marks an attempt where the fetch succeeded but the
// predicate was not yet satisfied, so the backoff loop keeps going.
var errNotReady = errors.New("condition not yet satisfied")

// Poller awaits job completion by repeatedly re-fetching an idea.
//
// A Poller is stateless across calls and safe for concurrent use by
// transitions on different ideas.
type Poller struct {
	fetcher     Fetcher
	interval    time.Duration
	maxAttempts int
}

// New creates a Poller with the default 2s/30-attempt policy.
func New(fetcher Fetcher) *Poller {
	return NewWithPolicy(fetcher, DefaultInterval, DefaultMaxAttempts)
}

// NewWithPolicy creates a Poller with an explicit interval and attempt
// budget. maxAttempts must be at least 1.
func NewWithPolicy(fetcher Fetcher, interval time.Duration, maxAttempts int) *Poller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Poller{fetcher: fetcher, interval: interval, maxAttempts: maxAttempts}
}

// Await re-fetches the idea until pred is satisfied and returns the
// first record that satisfies it.
//
// The first fetch happens immediately, then one fetch per interval up
// to the attempt budget: exactly maxAttempts fetches in the worst
// case, after which Await returns a [TimeoutError]. A vanished idea
// (fetch reporting [idea.ErrNotFound]) and context cancellation both
// abort the loop immediately and propagate as-is.
func (p *Poller) Await(ctx context.Context, ideaID string, pred Predicate) (*idea.Idea, error) {
	op := func() (*idea.Idea, error) {
		it, err := p.fetcher.FetchIdea(ctx, ideaID)
		if err != nil {
			if errors.Is(err, idea.ErrNotFound) {
				// The record is gone; no number of retries brings it back.
				return nil, backoff.Permanent(err)
			}
			// Transient fetch failures consume an attempt like any other.
			return nil, err
		}
		if !pred(it) {
			return nil, errNotReady
		}
		return it, nil
	}

	schedule := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.interval), uint64(p.maxAttempts-1)),
		ctx,
	)

	it, err := backoff.RetryWithData(op, schedule)
	if err == nil {
		return it, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, idea.ErrNotFound) {
		return nil, err
	}
	te := &TimeoutError{IdeaID: ideaID, Attempts: p.maxAttempts}
	if !errors.Is(err, errNotReady) {
		te.Err = err
	}
	return nil, te
}
