// Package byteregex compiles a regular expression into a byte-level DFA: a
// deterministic finite automaton whose alphabet is individual bytes
// (0-255), accepting exactly the strings that fully match the pattern.
//
// Compilation proceeds parse (regexp/syntax, used only as an AST producer,
// never as a matcher) -> Thompson NFA over bytes (UTF-8 expanding runes and
// character classes) -> subset construction -> minimization. The result is
// consumed by package index to cross it against a token vocabulary.
package byteregex

import "fmt"

// StateID uniquely identifies an NFA state.
type StateID uint32

// InvalidState marks an uninitialized or absent state reference.
const InvalidState StateID = 0xFFFFFFFF

// StateKind identifies the type of NFA state and which transitions are valid.
type StateKind uint8

const (
	// StateMatch is an accepting state: the pattern is fully consumed here.
	StateMatch StateKind = iota
	// StateByteRange transitions to next on any byte in [lo, hi].
	StateByteRange
	// StateSparse transitions on one of several disjoint byte ranges
	// (used for character classes with multiple ranges).
	StateSparse
	// StateSplit has epsilon transitions to two states (alternation,
	// quantifiers).
	StateSplit
	// StateEpsilon has a single epsilon transition (no input consumed).
	StateEpsilon
)

// String returns a human-readable name for the kind.
func (k StateKind) String() string {
	switch k {
	case StateMatch:
		return "Match"
	case StateByteRange:
		return "ByteRange"
	case StateSparse:
		return "Sparse"
	case StateSplit:
		return "Split"
	case StateEpsilon:
		return "Epsilon"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Transition is a byte range and its target state, used by Sparse states.
type Transition struct {
	Lo, Hi byte
	Next   StateID
}

// State is a single NFA state. Which fields are meaningful depends on Kind.
type State struct {
	id   StateID
	kind StateKind

	lo, hi byte
	next   StateID

	transitions []Transition

	left, right StateID
}

// ID returns the state's identifier.
func (s *State) ID() StateID { return s.id }

// Kind returns the state's kind.
func (s *State) Kind() StateKind { return s.kind }

// ByteRange returns the byte range and target for a ByteRange state.
func (s *State) ByteRange() (lo, hi byte, next StateID) {
	return s.lo, s.hi, s.next
}

// Transitions returns the disjoint byte ranges for a Sparse state.
func (s *State) Transitions() []Transition { return s.transitions }

// Split returns the two epsilon targets for a Split state.
func (s *State) Split() (left, right StateID) { return s.left, s.right }

// Epsilon returns the single target for an Epsilon state.
func (s *State) Epsilon() StateID { return s.next }
