package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/id8-org/id8/internal/cascade"
	"github.com/id8-org/id8/internal/idea"
)

// StatusCall records one SetStatus invocation for assertions.
type StatusCall struct {
	IdeaID        string
	Status        idea.Stage
	ClosureReason string
}

// MockStore is an in-memory Store and Lister for testing.
type MockStore struct {
	mu    sync.Mutex
	Ideas map[string]*idea.Idea

	// StatusCalls records every SetStatus invocation in order.
	StatusCalls []StatusCall

	// FailSetStatusOn makes SetStatus return SetStatusErr when asked
	// to persist this status value. Empty disables the injection.
	FailSetStatusOn idea.Stage
	SetStatusErr    error
}

func NewMockStore(ideas ...*idea.Idea) *MockStore {
	m := &MockStore{Ideas: make(map[string]*idea.Idea)}
	for _, it := range ideas {
		m.Ideas[it.ID] = it
	}
	return m
}

func (m *MockStore) FetchIdea(ctx context.Context, id string) (*idea.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.Ideas[id]
	if !ok {
		return nil, fmt.Errorf("fetch idea %s: %w", id, idea.ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (m *MockStore) ListIdeas(ctx context.Context) ([]idea.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]idea.Idea, 0, len(m.Ideas))
	for _, it := range m.Ideas {
		out = append(out, *it)
	}
	return out, nil
}

func (m *MockStore) SetStatus(ctx context.Context, id string, status idea.Stage, closureReason string) (*idea.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusCalls = append(m.StatusCalls, StatusCall{IdeaID: id, Status: status, ClosureReason: closureReason})
	if m.FailSetStatusOn != "" && status == m.FailSetStatusOn {
		return nil, m.SetStatusErr
	}
	it, ok := m.Ideas[id]
	if !ok {
		return nil, fmt.Errorf("set status of idea %s: %w", id, idea.ErrNotFound)
	}
	it.Status = status
	if closureReason != "" {
		it.ClosureReason = closureReason
	}
	cp := *it
	return &cp, nil
}

// MockRunner is a CascadeRunner returning a canned outcome.
type MockRunner struct {
	// Outcome is returned from Run; Completed defaults to the full
	// job list when nil and FailedJob is empty.
	Outcome cascade.Outcome

	// Runs records the job lists passed to Run.
	Runs [][]idea.JobKind

	// Started, when non-nil, is closed once Run is entered, and Run
	// then blocks until Release is closed. Used to hold a transition
	// in flight. BlockFor limits the blocking to one idea id; empty
	// blocks every run.
	Started  chan struct{}
	Release  chan struct{}
	BlockFor string
}

func (m *MockRunner) Run(ctx context.Context, it *idea.Idea, required []idea.JobKind) cascade.Outcome {
	m.Runs = append(m.Runs, required)
	if m.Started != nil && (m.BlockFor == "" || m.BlockFor == it.ID) {
		close(m.Started)
		<-m.Release
	}
	out := m.Outcome
	if out.Completed == nil && out.FailedJob == "" {
		out.Completed = required
	}
	return out
}

// MockGate is a ClosureGate with a canned answer.
type MockGate struct {
	Reason string
	OK     bool
	Err    error

	Confirms int
}

func (g *MockGate) Confirm(ctx context.Context, it *idea.Idea) (string, bool, error) {
	g.Confirms++
	return g.Reason, g.OK, g.Err
}
