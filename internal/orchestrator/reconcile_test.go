package orchestrator

import (
	"context"
	"testing"

	"github.com/id8-org/id8/internal/idea"
)

// staticInFlight is an InFlightChecker backed by a fixed id set.
type staticInFlight map[string]bool

func (s staticInFlight) InFlight(ideaID string) bool { return s[ideaID] }

// memorySeen is an in-memory SeenStore.
type memorySeen struct {
	seen  map[string]struct{}
	marks [][]string
}

func newMemorySeen(ids ...string) *memorySeen {
	m := &memorySeen{seen: make(map[string]struct{})}
	for _, id := range ids {
		m.seen[id] = struct{}{}
	}
	return m
}

func (m *memorySeen) Seen(ideaID string) bool {
	_, ok := m.seen[ideaID]
	return ok
}

func (m *memorySeen) MarkSeen(ideaIDs ...string) error {
	m.marks = append(m.marks, ideaIDs)
	for _, id := range ideaIDs {
		m.seen[id] = struct{}{}
	}
	return nil
}

func TestReconcileRefreshesBoard(t *testing.T) {
	store := NewMockStore(
		&idea.Idea{ID: "idea-1", Title: "robot barista", Status: idea.StageSuggested},
		&idea.Idea{ID: "idea-2", Title: "llama groomer", Status: idea.StageIterating},
	)
	r := NewReconciler(store, staticInFlight{}, DefaultReconcileInterval)

	if err := r.reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile() err = %v", err)
	}

	board := r.Snapshot()
	if len(board) != 2 {
		t.Fatalf("board size = %d, want 2", len(board))
	}
	// Snapshot orders by stage, so suggested comes first.
	if board[0].ID != "idea-1" || board[1].ID != "idea-2" {
		t.Errorf("board order = [%s %s], want [idea-1 idea-2]", board[0].ID, board[1].ID)
	}
}

func TestReconcileSkipsInFlightIdeas(t *testing.T) {
	store := NewMockStore(&idea.Idea{ID: "idea-1", Title: "robot barista", Status: idea.StageSuggested})
	inFlight := staticInFlight{}
	r := NewReconciler(store, inFlight, DefaultReconcileInterval)

	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The store moves on, but idea-1 now has a transition in flight:
	// its board entry must keep the pre-transition view.
	store.Ideas["idea-1"].Status = idea.StageDeepDive
	inFlight["idea-1"] = true

	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := r.Snapshot()[0].Status; got != idea.StageSuggested {
		t.Errorf("in-flight idea status = %s, want the superseded %s kept", got, idea.StageSuggested)
	}

	// Once the transition finishes, the store's view wins again.
	inFlight["idea-1"] = false
	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := r.Snapshot()[0].Status; got != idea.StageDeepDive {
		t.Errorf("settled idea status = %s, want %s", got, idea.StageDeepDive)
	}
}

func TestReconcileRecordsUnseenIdeas(t *testing.T) {
	store := NewMockStore(
		&idea.Idea{ID: "idea-1", Status: idea.StageSuggested},
		&idea.Idea{ID: "idea-2", Status: idea.StageSuggested},
	)
	seen := newMemorySeen("idea-1")
	r := NewReconciler(store, staticInFlight{}, DefaultReconcileInterval)
	r.SetSeenStore(seen)

	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(seen.marks) != 1 || len(seen.marks[0]) != 1 || seen.marks[0][0] != "idea-2" {
		t.Errorf("marks = %v, want only idea-2 recorded", seen.marks)
	}

	// A second pass has nothing new to record.
	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(seen.marks) != 1 {
		t.Errorf("marks after second pass = %v, want no new records", seen.marks)
	}
}

func TestReconcileDropsDeletedIdeas(t *testing.T) {
	store := NewMockStore(
		&idea.Idea{ID: "idea-1", Status: idea.StageSuggested},
		&idea.Idea{ID: "idea-2", Status: idea.StageSuggested},
	)
	r := NewReconciler(store, staticInFlight{}, DefaultReconcileInterval)

	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	delete(store.Ideas, "idea-2")
	if err := r.reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	board := r.Snapshot()
	if len(board) != 1 || board[0].ID != "idea-1" {
		t.Errorf("board = %v, want only idea-1", board)
	}
}

func TestReconcilerRunStopsOnCancel(t *testing.T) {
	store := NewMockStore()
	r := NewReconciler(store, staticInFlight{}, DefaultReconcileInterval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx); err != context.Canceled {
		t.Errorf("Run() err = %v, want context.Canceled", err)
	}
}
