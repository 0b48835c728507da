// Package optimistic implements snapshot-based tentative state changes
// for the in-memory idea view held during a transition.
//
// [Apply] mutates the local view immediately and returns an [UndoToken]
// capturing the prior status. The token is later resolved exactly once:
// [UndoToken.Commit] makes the change permanent, [UndoToken.Rollback]
// restores the literal snapshot. Rollback is a snapshot restore, not a
// recomputation, so it is exact even when unrelated fields on the idea
// changed while the cascade ran.
package optimistic

import "github.com/id8-org/id8/internal/idea"

// UndoToken captures the status an idea held immediately before an
// optimistic [Apply], so the change can be committed or rolled back.
//
// A token is single-use: after Commit or Rollback, further calls are
// no-ops. Tokens are confined to one transition's workflow and are not
// safe for concurrent use.
type UndoToken struct {
	target   *idea.Idea
	prev     idea.Stage
	resolved bool
}

// Apply tentatively moves the idea's status to next and returns the
// token that can undo it.
func Apply(target *idea.Idea, next idea.Stage) *UndoToken {
	t := &UndoToken{target: target, prev: target.Status}
	target.Status = next
	return t
}

// Prev returns the status snapshot taken when the token was created.
func (t *UndoToken) Prev() idea.Stage {
	return t.prev
}

// Commit discards the snapshot, making the applied change permanent.
func (t *UndoToken) Commit() {
	t.resolved = true
}

// Rollback restores the exact status captured at Apply time. It does
// nothing if the token was already committed or rolled back.
func (t *UndoToken) Rollback() {
	if t.resolved {
		return
	}
	t.target.Status = t.prev
	t.resolved = true
}

// Resolved reports whether the token has been committed or rolled back.
func (t *UndoToken) Resolved() bool {
	return t.resolved
}
