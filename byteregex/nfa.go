package byteregex

import (
	"github.com/quanliu1991/outlines-core/internal/sparse"
)

// NFA is a Thompson construction over bytes, produced by compiler and
// consumed only by subset construction in this package.
type NFA struct {
	states []State
	start  StateID
}

func newNFA(states []State, start StateID) *NFA {
	return &NFA{states: states, start: start}
}

// epsilonClosure adds to set every state reachable from ids without
// consuming a byte: Split's two branches and Epsilon's single target.
// ByteRange, Sparse, and Match states are terminal with respect to closure
// (Match belongs to the closure itself, ByteRange/Sparse are consumed-byte
// transitions recorded separately by the caller).
func (n *NFA) epsilonClosure(set *sparse.SparseSet, stack []StateID, ids ...StateID) []StateID {
	stack = stack[:0]
	for _, id := range ids {
		if !set.Contains(uint32(id)) {
			set.Insert(uint32(id))
			stack = append(stack, id)
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s := &n.states[id]
		switch s.kind {
		case StateSplit:
			if s.left != InvalidState && !set.Contains(uint32(s.left)) {
				set.Insert(uint32(s.left))
				stack = append(stack, s.left)
			}
			if s.right != InvalidState && !set.Contains(uint32(s.right)) {
				set.Insert(uint32(s.right))
				stack = append(stack, s.right)
			}
		case StateEpsilon:
			if s.next != InvalidState && !set.Contains(uint32(s.next)) {
				set.Insert(uint32(s.next))
				stack = append(stack, s.next)
			}
		}
	}
	return stack
}
