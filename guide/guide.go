// Package guide implements the stateful cursor over an index.Index that a
// generation loop drives one token at a time: it tracks the current
// automaton state, offers a bounded undo window over recent advances, and
// emits the allowed-token set as a packed bitmask for downstream logits
// masking.
//
// A Guide is cheap to create and holds no exclusive lock on its Index:
// many Guides may share one Index by reference and advance independently,
// since the Index never mutates after index.Build returns it.
package guide

import (
	"github.com/quanliu1991/outlines-core/index"
	"github.com/quanliu1991/outlines-core/vocabulary"
)

// Guide is a stateful cursor over a shared, immutable Index.
type Guide struct {
	idx         *index.Index
	current     index.State
	maxRollback int
	ring        []index.State // oldest first; len never exceeds maxRollback
	lastWasEOS  bool
}

// New creates a Guide positioned at index's initial state, with a rollback
// window holding at most maxRollback prior states. maxRollback of 0
// disables rollback entirely (RollbackState(n) for any n > 0 then always fails).
func New(idx *index.Index, maxRollback int) *Guide {
	return &Guide{
		idx:         idx,
		current:     idx.GetInitialState(),
		maxRollback: maxRollback,
	}
}

// GetState returns the current automaton state.
func (g *Guide) GetState() index.State { return g.current }

// GetTokens returns the token IDs allowed from the current state, sorted
// ascending.
func (g *Guide) GetTokens() []vocabulary.TokenID {
	return g.idx.GetAllowedTokens(g.current)
}

// Advance consumes tid from the current state. On success it pushes the
// pre-advance state onto the rollback ring (dropping the oldest entry if
// the ring is already full) and returns the newly allowed token set. On
// failure the Guide's state is left unchanged: the attempted advance does
// not consume a rollback slot.
func (g *Guide) Advance(tid vocabulary.TokenID) ([]vocabulary.TokenID, error) {
	next, ok := g.idx.GetNextState(g.current, tid)
	if !ok {
		return nil, &TransitionError{State: uint32(g.current), Token: uint32(tid)}
	}

	g.pushRollback(g.current)
	g.current = next
	g.lastWasEOS = tid == g.idx.EOSTokenID()
	return g.idx.GetAllowedTokens(g.current), nil
}

func (g *Guide) pushRollback(s index.State) {
	if g.maxRollback == 0 {
		return
	}
	g.ring = append(g.ring, s)
	if len(g.ring) > g.maxRollback {
		g.ring = g.ring[1:]
	}
}

// RollbackState undoes the last n advances, restoring current to the
// state held before the nth-from-last advance. Fails with
// ErrRollbackOverflow if n exceeds the number of states in the rollback
// window, leaving the Guide unchanged.
func (g *Guide) RollbackState(n int) error {
	if n < 0 || n > len(g.ring) {
		return &RollbackError{Requested: n, Available: len(g.ring)}
	}
	if n == 0 {
		return nil
	}
	newLen := len(g.ring) - n
	g.current = g.ring[newLen]
	g.ring = g.ring[:newLen]
	g.lastWasEOS = false
	return nil
}

// AcceptsTokens reports whether seq can be advanced through in full from
// the current state without any step failing. It does not mutate the
// Guide: this is a fold over a hypothetical copy of Advance.
func (g *Guide) AcceptsTokens(seq []vocabulary.TokenID) bool {
	cur := g.current
	for _, tid := range seq {
		next, ok := g.idx.GetNextState(cur, tid)
		if !ok {
			return false
		}
		cur = next
	}
	return true
}

// IsFinished reports whether the last Advance consumed the EOS token from
// a final state. Merely entering a final state is not finished: the
// language may still admit longer matches, so the model remains free to
// choose EOS or continue.
func (g *Guide) IsFinished() bool {
	return g.lastWasEOS && g.idx.IsFinalState(g.current)
}

// RollbackDepth returns the number of states currently held in the
// rollback window.
func (g *Guide) RollbackDepth() int { return len(g.ring) }

// Equal reports whether two Guides share an equal Index and have the same
// current state, rollback buffer contents, and record of whether the last
// advance consumed EOS.
func (g *Guide) Equal(other *Guide) bool {
	if other == nil {
		return false
	}
	if !g.idx.Equal(other.idx) {
		return false
	}
	if g.current != other.current || g.lastWasEOS != other.lastWasEOS {
		return false
	}
	if len(g.ring) != len(other.ring) {
		return false
	}
	for i := range g.ring {
		if g.ring[i] != other.ring[i] {
			return false
		}
	}
	return true
}
