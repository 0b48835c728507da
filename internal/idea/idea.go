// Package idea defines the core domain types for the idea lifecycle:
// the ordered [Stage] enumeration, the [JobKind] enumeration for the
// background analysis jobs that back-fill stage data, and the [Idea]
// record as served by the id8 backend.
//
// Stages form a strict total order:
//
//	suggested < deep_dive < iterating < considering < closed
//
// Forward movement through the order requires back-filling every
// intermediate stage's analysis job; backward movement requires none.
// The transition table itself lives in the router package.
package idea

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNotFound is a sentinel error indicating an idea id does not exist
// in the record store. The api client maps HTTP 404 responses to this
// error; the orchestrator treats it as the idea having vanished
// mid-transition.
var ErrNotFound = errors.New("idea not found")

// Stage is one of the five ordered lifecycle states an idea passes
// through. The zero value is not a valid stage.
type Stage string

// The five lifecycle stages, in order.
const (
	StageSuggested   Stage = "suggested"
	StageDeepDive    Stage = "deep_dive"
	StageIterating   Stage = "iterating"
	StageConsidering Stage = "considering"
	StageClosed      Stage = "closed"
)

// stageOrder maps each stage to its position in the lifecycle.
var stageOrder = map[Stage]int{
	StageSuggested:   0,
	StageDeepDive:    1,
	StageIterating:   2,
	StageConsidering: 3,
	StageClosed:      4,
}

// Stages returns all lifecycle stages in order.
func Stages() []Stage {
	return []Stage{StageSuggested, StageDeepDive, StageIterating, StageConsidering, StageClosed}
}

// IsValid reports whether s is one of the five lifecycle stages.
func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Index returns the stage's position in the lifecycle order, starting
// at 0 for suggested. Returns -1 for invalid stages.
func (s Stage) Index() int {
	i, ok := stageOrder[s]
	if !ok {
		return -1
	}
	return i
}

// Before reports whether s is strictly earlier in the lifecycle than
// other. Invalid stages are never before anything.
func (s Stage) Before(other Stage) bool {
	si, ok := stageOrder[s]
	if !ok {
		return false
	}
	oi, ok := stageOrder[other]
	if !ok {
		return false
	}
	return si < oi
}

// JobKind identifies one of the four background analysis jobs.
type JobKind string

// The four analysis job kinds. Each populates the payload fields
// required by the correspondingly named stage.
const (
	JobDeepDive    JobKind = "deep_dive"
	JobIterating   JobKind = "iterating"
	JobConsidering JobKind = "considering"
	JobClosure     JobKind = "closure"
)

// IsValid reports whether k is one of the four job kinds.
func (k JobKind) IsValid() bool {
	switch k {
	case JobDeepDive, JobIterating, JobConsidering, JobClosure:
		return true
	}
	return false
}

// Idea is the record served by the id8 backend. The orchestrator only
// ever holds a transient, possibly stale, in-memory copy; the record
// store owns the durable state.
//
// The analysis payloads are kept opaque (raw JSON): their content is
// produced and consumed by the backend's analysis jobs, and this
// subsystem only needs to know whether they are populated.
type Idea struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Status is always one of the five stage values, never empty.
	Status Stage `json:"status"`

	// DeepDiveRequested distinguishes "deep-dive job fired but result
	// not yet observed" from "never requested".
	DeepDiveRequested bool `json:"deep_dive_requested"`

	DeepDive    json.RawMessage `json:"deep_dive,omitempty"`
	Iterating   json.RawMessage `json:"iterating,omitempty"`
	Considering json.RawMessage `json:"considering,omitempty"`

	// ClosureReason is collected by the closure confirmation gate when
	// an idea moves to closed.
	ClosureReason string `json:"closure_reason,omitempty"`
}

// jsonNull is the serialized JSON null literal, which the backend
// returns for fields that were never populated.
var jsonNull = []byte("null")

// HasDeepDive reports whether the deep-dive analysis payload has been
// populated. This is the completion predicate the poller evaluates
// after the deep-dive job fires.
func (i *Idea) HasDeepDive() bool {
	return len(i.DeepDive) > 0 && !bytes.Equal(i.DeepDive, jsonNull)
}
