// Package cascade executes the ordered background-job sequence a stage
// transition requires.
//
// The cascade package provides [Executor] which runs the jobs resolved
// by the router strictly in table order, never concurrently: later
// jobs may depend on artifacts the earlier ones write to the record.
// On the first failure the remaining jobs are not attempted and the
// [Outcome] reports exactly how far the cascade got.
//
// Only the deep-dive job is awaited. Its result is a hard prerequisite
// the user must see before dependent jobs can do useful work, so the
// executor fires it and then polls the record until the deep-dive
// payload appears. The other three kinds fire and proceed immediately,
// so a cascade can report success before their data lands. That
// asymmetry is inherited from the product's behavior and kept as is.
//
// Key concepts:
//   - Jobs are fired through [JobClient]; a fire error names the job
//     as the cascade's failure
//   - Deep-dive completion is awaited through [CompletionPoller]
//   - One started and one terminal notification per attempted job
//     goes to the [notify.Sink]
package cascade

import (
	"context"
	"errors"

	"github.com/id8-org/id8/internal/idea"
	"github.com/id8-org/id8/internal/notify"
	"github.com/id8-org/id8/internal/poll"
)

// JobClient fires background analysis jobs. The jobs facade implements
// this interface.
type JobClient interface {
	Fire(ctx context.Context, kind idea.JobKind, ideaID string) error
}

// CompletionPoller awaits an observable job result by re-fetching the
// idea record. The poll.Poller type implements this interface.
type CompletionPoller interface {
	Await(ctx context.Context, ideaID string, pred poll.Predicate) (*idea.Idea, error)
}

// Outcome reports how a cascade run ended.
type Outcome struct {
	// Completed lists every job kind that finished, in execution order.
	Completed []idea.JobKind

	// FailedJob names the first job that failed, or is empty when the
	// cascade fully succeeded.
	FailedJob idea.JobKind

	// Err is the cause of the failure: a jobs.RequestError, a
	// poll.TimeoutError, a context error, or an error wrapping
	// idea.ErrNotFound when the record vanished during a poll.
	Err error
}

// Failed reports whether the cascade stopped on a job failure.
func (o Outcome) Failed() bool {
	return o.FailedJob != ""
}

// Executor runs job cascades. Create with [NewExecutor].
//
// An Executor holds no per-run state and is safe for concurrent use by
// transitions on different ideas.
type Executor struct {
	jobs   JobClient
	poller CompletionPoller
	sink   notify.Sink
}

// NewExecutor creates an Executor with the required dependencies.
// Pass [notify.Noop] as the sink to silence progress output.
func NewExecutor(jobs JobClient, poller CompletionPoller, sink notify.Sink) *Executor {
	return &Executor{jobs: jobs, poller: poller, sink: sink}
}

// Run executes the required jobs for it strictly in order.
//
// Run stops at the first fire error, deep-dive poll timeout, or
// context cancellation, without attempting subsequent jobs. The
// returned Outcome's Completed list holds every job that finished
// before the failure; FailedJob is empty iff all jobs completed.
//
// The local idea view is updated in place as results are observed:
// DeepDiveRequested flips once the deep-dive job is accepted, and the
// deep-dive payload is copied in when the poll sees it.
func (e *Executor) Run(ctx context.Context, it *idea.Idea, required []idea.JobKind) Outcome {
	out := Outcome{Completed: make([]idea.JobKind, 0, len(required))}

	for _, kind := range required {
		if err := ctx.Err(); err != nil {
			out.FailedJob = kind
			out.Err = err
			return out
		}

		e.sink.Notify(notify.Event{Kind: notify.EventStarted, Job: kind, IdeaTitle: it.Title})

		if err := e.jobs.Fire(ctx, kind, it.ID); err != nil {
			e.sink.Notify(notify.Event{Kind: notify.EventFailed, Job: kind, IdeaTitle: it.Title})
			out.FailedJob = kind
			out.Err = err
			return out
		}

		if kind == idea.JobDeepDive {
			it.DeepDiveRequested = true
			fresh, err := e.poller.Await(ctx, it.ID, (*idea.Idea).HasDeepDive)
			if err != nil {
				e.sink.Notify(notify.Event{Kind: terminalKind(err), Job: kind, IdeaTitle: it.Title})
				out.FailedJob = kind
				out.Err = err
				return out
			}
			it.DeepDive = fresh.DeepDive
		}

		e.sink.Notify(notify.Event{Kind: notify.EventCompleted, Job: kind, IdeaTitle: it.Title})
		out.Completed = append(out.Completed, kind)
	}

	return out
}

// terminalKind picks the terminal notification for a failed await.
func terminalKind(err error) notify.EventKind {
	var te *poll.TimeoutError
	if errors.As(err, &te) {
		return notify.EventTimeout
	}
	return notify.EventFailed
}
