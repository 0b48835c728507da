// Package orchestrator coordinates a single requested stage transition
// end to end.
//
// A transition runs through a small state machine: Idle →
// Transitioning → Committed or RolledBack. While Transitioning, the
// orchestrator resolves the required jobs via the router, applies the
// destination status optimistically (locally and on the record store),
// and hands the job list to the cascade executor. A fully successful
// cascade re-fetches the record and commits; any failure rolls the
// status back to its snapshot and surfaces a partial-failure report.
//
// Transitions are single-flight per idea id: a second request for an
// id already in flight is rejected with [ErrTransitionInFlight] before
// any state is touched, never queued. Transitions for different ids
// run fully concurrently.
//
// Key types:
//   - [Orchestrator] - the entry point, created with [New]
//   - [Request] - one immutable user-initiated move
//   - [Result] - the committed or rolled-back outcome
//   - [Reconciler] - independent background board refresh (reconcile.go)
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/id8-org/id8/internal/cascade"
	"github.com/id8-org/id8/internal/idea"
	"github.com/id8-org/id8/internal/optimistic"
	"github.com/id8-org/id8/internal/router"
)

// Sentinel errors for transition requests.
var (
	// ErrTransitionInFlight is returned when a transition is requested
	// for an idea that already has one in flight. The request is
	// rejected outright rather than queued, so optimistic updates for
	// one idea can never race each other.
	ErrTransitionInFlight = errors.New("a transition is already in flight for this idea")

	// ErrIdeaVanished is returned when the record store reports the
	// idea no longer exists mid-transition. No rollback is attempted,
	// since there is no record left to restore, and the caller should drop
	// the idea from any local view.
	ErrIdeaVanished = errors.New("idea no longer exists in the store")

	// ErrClosureDeclined is returned when the closure confirmation
	// gate declines a move to closed. The transition never entered
	// Transitioning and no state, optimistic or durable, was touched.
	ErrClosureDeclined = errors.New("closure not confirmed")
)

// Store is the record-store surface a transition needs. The api client
// implements this interface.
type Store interface {
	// FetchIdea returns the latest committed record.
	FetchIdea(ctx context.Context, id string) (*idea.Idea, error)

	// SetStatus persists a status change. An error wrapping
	// idea.ErrNotFound means the idea vanished.
	SetStatus(ctx context.Context, id string, status idea.Stage, closureReason string) (*idea.Idea, error)
}

// CascadeRunner executes the ordered job list for a transition. The
// cascade.Executor type implements this interface.
type CascadeRunner interface {
	Run(ctx context.Context, it *idea.Idea, required []idea.JobKind) cascade.Outcome
}

// ClosureGate collects a closure reason before an idea moves to
// closed. Returning ok=false aborts the transition before any state is
// applied. The CLI implements this with a flag-provided reason; a UI
// would implement it with a confirmation dialog.
type ClosureGate interface {
	Confirm(ctx context.Context, it *idea.Idea) (reason string, ok bool, err error)
}

// State is the terminal state of a finished transition.
type State string

const (
	// StateCommitted means the cascade fully succeeded and the new
	// status is durable.
	StateCommitted State = "committed"

	// StateRolledBack means the cascade failed or was cancelled and
	// the status was restored to its pre-transition snapshot.
	StateRolledBack State = "rolled_back"
)

// Request is one user-initiated move, immutable for the lifetime of
// the orchestration.
type Request struct {
	IdeaID string
	From   idea.Stage
	To     idea.Stage
}

// Result is the structured outcome of a finished transition.
type Result struct {
	// TransitionID correlates log lines and notifications for one
	// transition.
	TransitionID uuid.UUID

	// State is Committed or RolledBack.
	State State

	// Outcome is the cascade report: which jobs completed and which,
	// if any, failed first.
	Outcome cascade.Outcome

	// FinalStatus is the idea's status after commit or rollback.
	FinalStatus idea.Stage

	// Message is the user-facing summary, naming the failed stage and
	// how many stages completed. Never a raw internal error.
	Message string
}

// Orchestrator runs stage transitions. Create with [New].
type Orchestrator struct {
	store  Store
	router *router.Router
	runner CascadeRunner
	gate   ClosureGate
	log    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates an Orchestrator with the required dependencies.
//
// No closure gate is set by default, which means moves to closed are
// rejected; call [Orchestrator.SetClosureGate] to allow them.
func New(store Store, r *router.Router, runner CascadeRunner) *Orchestrator {
	return &Orchestrator{
		store:    store,
		router:   r,
		runner:   runner,
		log:      slog.Default(),
		inFlight: make(map[string]struct{}),
	}
}

// SetClosureGate configures the confirmation gate for moves to closed.
// Safe to call while transitions are in flight; a running transition
// keeps the gate it started with.
func (o *Orchestrator) SetClosureGate(g ClosureGate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gate = g
}

// closureGate reads the current gate under the lock.
func (o *Orchestrator) closureGate() ClosureGate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gate
}

// SetLogger replaces the structured logger.
func (o *Orchestrator) SetLogger(log *slog.Logger) {
	o.log = log
}

// InFlight reports whether a transition is currently running for the
// idea id. The reconciler uses this to leave in-flight ideas alone.
func (o *Orchestrator) InFlight(ideaID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[ideaID]
	return ok
}

// acquire claims the single-flight slot for an idea id.
func (o *Orchestrator) acquire(ideaID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.inFlight[ideaID]; ok {
		return fmt.Errorf("%w: %s", ErrTransitionInFlight, ideaID)
	}
	o.inFlight[ideaID] = struct{}{}
	return nil
}

// release frees the single-flight slot.
func (o *Orchestrator) release(ideaID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, ideaID)
}

// Transition runs one requested stage move to completion.
//
// On a fully successful cascade the Result is Committed with the idea
// at req.To. On any job failure or cancellation the Result is
// RolledBack with the status restored, the completed jobs listed, and
// a message naming the failed stage; job side effects already written
// to the record are not undone, only the status field is restored.
//
// Errors (no Result):
//   - [ErrTransitionInFlight] - rejected before any state mutation
//   - [ErrClosureDeclined] - the closure gate aborted a move to closed
//   - [ErrIdeaVanished] - the store lost the idea; nothing to roll back
//   - [router.ErrUnknownStage] - invalid stage in the request
func (o *Orchestrator) Transition(ctx context.Context, req Request) (*Result, error) {
	if err := o.acquire(req.IdeaID); err != nil {
		return nil, err
	}
	defer o.release(req.IdeaID)

	required, err := o.router.RequiredJobs(req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("transition %s→%s: %w", req.From, req.To, err)
	}

	transitionID := uuid.New()
	log := o.log.With("transition_id", transitionID, "idea_id", req.IdeaID, "from", req.From, "to", req.To)

	it, err := o.store.FetchIdea(ctx, req.IdeaID)
	if err != nil {
		if errors.Is(err, idea.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIdeaVanished, req.IdeaID)
		}
		return nil, err
	}

	// A move to closed is gated on a confirmed closure reason before
	// anything is applied. Declining leaves every state untouched.
	if req.To == idea.StageClosed {
		gate := o.closureGate()
		if gate == nil {
			return nil, ErrClosureDeclined
		}
		reason, ok, err := gate.Confirm(ctx, it)
		if err != nil {
			return nil, fmt.Errorf("closure confirmation: %w", err)
		}
		if !ok {
			log.Debug("closure declined")
			return nil, ErrClosureDeclined
		}
		it.ClosureReason = reason
	}

	log.Debug("transition started", "jobs", len(required))

	// Optimistic apply: local view first, then the store, so job
	// workers observe the destination stage while the cascade runs.
	token := optimistic.Apply(it, req.To)
	if _, err := o.store.SetStatus(ctx, it.ID, req.To, it.ClosureReason); err != nil {
		if errors.Is(err, idea.ErrNotFound) {
			// Vanished: the snapshot has no record to restore onto.
			return nil, fmt.Errorf("%w: %s", ErrIdeaVanished, req.IdeaID)
		}
		token.Rollback()
		return nil, err
	}

	out := o.runner.Run(ctx, it, required)
	if out.Failed() {
		return o.rollback(ctx, req, it, token, out, len(required), transitionID, log)
	}

	// Finalize: pick up the fields the jobs wrote, then commit.
	if fresh, err := o.store.FetchIdea(ctx, it.ID); err == nil {
		*it = *fresh
	} else if errors.Is(err, idea.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIdeaVanished, req.IdeaID)
	} else {
		// The cascade already succeeded; a failed refresh only means
		// the local view is stale, not that the transition failed.
		log.Warn("final re-fetch failed", "error", err)
	}
	token.Commit()
	log.Debug("transition committed")

	return &Result{
		TransitionID: transitionID,
		State:        StateCommitted,
		Outcome:      out,
		FinalStatus:  req.To,
		Message:      fmt.Sprintf("%q moved to %s (%d of %d analysis stages completed)", it.Title, req.To, len(out.Completed), len(required)),
	}, nil
}

// rollback restores the pre-transition status after a failed cascade.
func (o *Orchestrator) rollback(ctx context.Context, req Request, it *idea.Idea, token *optimistic.UndoToken, out cascade.Outcome, total int, transitionID uuid.UUID, log *slog.Logger) (*Result, error) {
	// A vanished record during the cascade (e.g. a poll fetch hitting
	// 404) means there is nothing to roll back to.
	if errors.Is(out.Err, idea.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIdeaVanished, req.IdeaID)
	}

	// The rollback write must land even when the cascade failed
	// because the surrounding context was cancelled.
	if _, err := o.store.SetStatus(context.WithoutCancel(ctx), it.ID, token.Prev(), ""); err != nil {
		if errors.Is(err, idea.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIdeaVanished, req.IdeaID)
		}
		log.Warn("status rollback write failed", "error", err)
	}
	token.Rollback()
	log.Debug("transition rolled back", "failed_job", out.FailedJob, "completed", len(out.Completed))

	return &Result{
		TransitionID: transitionID,
		State:        StateRolledBack,
		Outcome:      out,
		FinalStatus:  token.Prev(),
		Message: fmt.Sprintf("%q could not reach %s: the %s stage did not finish (%d of %d stages completed); status restored to %s",
			it.Title, req.To, out.FailedJob, len(out.Completed), total, token.Prev()),
	}, nil
}
