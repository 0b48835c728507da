// Package router resolves which background analysis jobs a stage
// transition requires.
//
// Each stage's data depends on the stage before it, so a forward move
// must transitively back-fill every intermediate stage's job exactly
// once, in dependency order, even when the user jumps several stages
// at once. Backward moves (and same-stage moves) require no jobs.
//
// Routing can be driven by the default lifecycle chain ([NewRouter])
// or by a custom chain ([NewRouterWithChain]) for tests and future
// backend-driven lifecycles.
//
// The package-level [RequiredJobs] function uses the default router.
package router

import (
	"errors"

	"github.com/id8-org/id8/internal/idea"
)

// ErrUnknownStage is a sentinel error indicating a stage value outside
// the lifecycle enumeration was passed to the router. Callers should
// report this as a request validation failure.
var ErrUnknownStage = errors.New("unknown stage value")

// ChainLink binds a destination stage to the job that back-fills its
// data. The suggested stage has no backing job: ideas are created
// directly into it.
type ChainLink struct {
	Stage idea.Stage
	Job   idea.JobKind
}

// Router resolves (from, to) stage pairs to ordered job lists.
//
// Create with [NewRouter] for the standard lifecycle or
// [NewRouterWithChain] to inject a custom chain.
type Router struct {
	// chain holds the stages reachable by a job, in lifecycle order.
	chain []ChainLink

	// stageIndex maps each stage to its position in the lifecycle,
	// with suggested at 0 and chain entries following in order.
	stageIndex map[idea.Stage]int
}

// NewRouter creates a [Router] for the standard idea lifecycle:
//
//	suggested → deep_dive → iterating → considering → closed
//
// backed by the deep_dive, iterating, considering, and closure jobs
// respectively.
func NewRouter() *Router {
	return NewRouterWithChain([]ChainLink{
		{Stage: idea.StageDeepDive, Job: idea.JobDeepDive},
		{Stage: idea.StageIterating, Job: idea.JobIterating},
		{Stage: idea.StageConsidering, Job: idea.JobConsidering},
		{Stage: idea.StageClosed, Job: idea.JobClosure},
	})
}

// NewRouterWithChain creates a [Router] over a custom lifecycle chain.
// The chain lists every stage after the initial one, in order, paired
// with the job that produces its data.
func NewRouterWithChain(chain []ChainLink) *Router {
	r := &Router{
		chain:      chain,
		stageIndex: make(map[idea.Stage]int, len(chain)+1),
	}
	r.stageIndex[idea.StageSuggested] = 0
	for i, link := range chain {
		r.stageIndex[link.Stage] = i + 1
	}
	return r
}

// RequiredJobs returns the ordered list of jobs that must run to move
// an idea from one stage to another.
//
// Forward moves return one job per stage strictly after from and up to
// and including to. Backward and same-stage moves return an empty
// list: no backing jobs are required to revisit earlier data.
//
// Returns [ErrUnknownStage] if either stage is not in the lifecycle.
func (r *Router) RequiredJobs(from, to idea.Stage) ([]idea.JobKind, error) {
	fromIdx, ok := r.stageIndex[from]
	if !ok {
		return nil, ErrUnknownStage
	}
	toIdx, ok := r.stageIndex[to]
	if !ok {
		return nil, ErrUnknownStage
	}

	if toIdx <= fromIdx {
		return nil, nil
	}

	jobs := make([]idea.JobKind, 0, toIdx-fromIdx)
	for _, link := range r.chain[fromIdx:toIdx] {
		jobs = append(jobs, link.Job)
	}
	return jobs, nil
}

// defaultRouter is the package-level router for the standard lifecycle.
var defaultRouter = NewRouter()

// RequiredJobs returns the ordered job list for a transition using the
// standard lifecycle chain. See [Router.RequiredJobs].
func RequiredJobs(from, to idea.Stage) ([]idea.JobKind, error) {
	return defaultRouter.RequiredJobs(from, to)
}
