package guide

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is.
var (
	// ErrNoTransition is returned by Advance when the current state has no
	// transition for the given token.
	ErrNoTransition = errors.New("guide: no transition for token from current state")

	// ErrRollbackOverflow is returned by RollbackState when n exceeds the
	// number of states currently held in the rollback buffer.
	ErrRollbackOverflow = errors.New("guide: rollback count exceeds buffer depth")

	// ErrInvalidElementSize is returned by WriteMaskInto when elementSize
	// is not 4 (the bitmask is defined in terms of 32-bit words).
	ErrInvalidElementSize = errors.New("guide: bitmask element size must be 4 bytes")

	// ErrInvalidBufferSize is returned by WriteMaskInto when nElements is
	// less than 1.
	ErrInvalidBufferSize = errors.New("guide: bitmask buffer must hold at least one element")

	// ErrInvalidDataPointer is returned by WriteMaskInto when ptr is 0.
	ErrInvalidDataPointer = errors.New("guide: bitmask data pointer must not be null")

	// ErrInvalidDataPointerAlignment is returned by WriteMaskInto when ptr
	// is not 4-byte aligned.
	ErrInvalidDataPointerAlignment = errors.New("guide: bitmask data pointer must be 4-byte aligned")
)

// TransitionError wraps ErrNoTransition with the state/token that failed.
type TransitionError struct {
	State uint32
	Token uint32
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("guide: token %d has no transition from state %d", e.Token, e.State)
}

func (e *TransitionError) Unwrap() error { return ErrNoTransition }

// RollbackError wraps ErrRollbackOverflow with the requested/available depth.
type RollbackError struct {
	Requested int
	Available int
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("guide: rollback(%d) exceeds buffer depth %d", e.Requested, e.Available)
}

func (e *RollbackError) Unwrap() error { return ErrRollbackOverflow }
