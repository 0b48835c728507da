package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/id8-org/id8/internal/idea"
)

// DefaultReconcileInterval is the period of the background full-store
// refresh.
const DefaultReconcileInterval = 10 * time.Second

// Lister reads the full idea store. The api client implements this
// interface.
type Lister interface {
	ListIdeas(ctx context.Context) ([]idea.Idea, error)
}

// InFlightChecker reports whether an idea currently has a transition
// in flight. The [Orchestrator] implements this interface.
type InFlightChecker interface {
	InFlight(ideaID string) bool
}

// SeenStore records idea ids the user's board has already surfaced.
// The shortlist store implements this interface.
type SeenStore interface {
	Seen(ideaID string) bool
	MarkSeen(ideaIDs ...string) error
}

// Reconciler periodically re-reads the full idea store and refreshes a
// local board snapshot.
//
// Reconciliation runs independently of per-transition workflows and
// never fights them: ids with a transition in flight keep their
// current snapshot entry until the transition commits or rolls back,
// so a stale store read can never clobber a pending optimistic state.
//
// Create with [NewReconciler] and start with [Reconciler.Run].
type Reconciler struct {
	lister   Lister
	inFlight InFlightChecker
	seen     SeenStore
	interval time.Duration
	log      *slog.Logger

	mu    sync.RWMutex
	board map[string]idea.Idea
}

// NewReconciler creates a Reconciler polling the store every interval.
// Pass 0 for the default 10s period.
func NewReconciler(lister Lister, inFlight InFlightChecker, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		lister:   lister,
		inFlight: inFlight,
		interval: interval,
		log:      slog.Default(),
		board:    make(map[string]idea.Idea),
	}
}

// SetSeenStore configures an optional seen-id store. When set, each
// pass records ids the board has never surfaced before.
func (r *Reconciler) SetSeenStore(s SeenStore) {
	r.seen = s
}

// SetLogger replaces the structured logger.
func (r *Reconciler) SetLogger(log *slog.Logger) {
	r.log = log
}

// Run reconciles immediately and then once per interval until the
// context is cancelled. It always returns the context's error.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.reconcile(ctx); err != nil {
		r.log.Warn("reconcile pass failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.reconcile(ctx); err != nil {
				r.log.Warn("reconcile pass failed", "error", err)
			}
		}
	}
}

// reconcile performs one full-store refresh pass.
func (r *Reconciler) reconcile(ctx context.Context) error {
	ideas, err := r.lister.ListIdeas(ctx)
	if err != nil {
		return err
	}

	var unseen []string

	r.mu.Lock()
	fresh := make(map[string]idea.Idea, len(ideas))
	for _, it := range ideas {
		if r.inFlight.InFlight(it.ID) {
			// A pending commit/rollback supersedes this read.
			if cur, ok := r.board[it.ID]; ok {
				fresh[it.ID] = cur
			} else {
				fresh[it.ID] = it
			}
			continue
		}
		fresh[it.ID] = it
		if r.seen != nil && !r.seen.Seen(it.ID) {
			unseen = append(unseen, it.ID)
		}
	}
	// Ideas deleted from the store drop off the board, unless a
	// transition still holds them.
	for id, cur := range r.board {
		if _, ok := fresh[id]; !ok && r.inFlight.InFlight(id) {
			fresh[id] = cur
		}
	}
	r.board = fresh
	r.mu.Unlock()

	if len(unseen) > 0 {
		if err := r.seen.MarkSeen(unseen...); err != nil {
			r.log.Warn("recording seen ideas failed", "error", err)
		}
		r.log.Debug("new ideas surfaced", "count", len(unseen))
	}
	return nil
}

// Snapshot returns the current board view, ordered by lifecycle stage
// and then by id for a stable rendering.
func (r *Reconciler) Snapshot() []idea.Idea {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]idea.Idea, 0, len(r.board))
	for _, it := range r.board {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status.Index() < out[j].Status.Index()
		}
		return out[i].ID < out[j].ID
	})
	return out
}
