// Package notify defines the user-facing progress notification sink
// for cascade execution.
//
// The cascade executor emits one started event and one terminal event
// (completed, timeout, or failed) per job it attempts. Sinks are
// fire-and-forget: they return nothing and must never block the
// orchestration workflow.
package notify

import "github.com/id8-org/id8/internal/idea"

// EventKind classifies a progress notification.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventTimeout   EventKind = "timeout"
	EventFailed    EventKind = "failed"
)

// Event is a single progress notification about one job of a cascade.
type Event struct {
	Kind      EventKind
	Job       idea.JobKind
	IdeaTitle string
}

// Sink receives progress notifications. Implementations must not
// block; the console sink writes synchronously to a local writer,
// which is fast enough to count.
type Sink interface {
	Notify(Event)
}

// Noop is a Sink that discards every event.
type Noop struct{}

func (Noop) Notify(Event) {}
