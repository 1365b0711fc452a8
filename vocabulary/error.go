// Package vocabulary implements the ordered, mutable mapping from token
// spellings to token IDs that the byte-DFA is cross-indexed against.
//
// A Vocabulary owns no automaton state: it is pure data, mutable until it is
// handed to index.Build, at which point the Index captures a snapshot of it.
package vocabulary

import (
	"errors"
	"fmt"
)

// Common vocabulary errors, checked with errors.Is.
var (
	// ErrBadToken indicates a token spelling that is not valid UTF-8 text
	// or was otherwise malformed.
	ErrBadToken = errors.New("vocabulary: bad token")

	// ErrEOSInValues indicates the EOS id appeared as a value in the
	// constructor's dict argument.
	ErrEOSInValues = errors.New("vocabulary: eos token id found in values")

	// ErrEOSInsert indicates Insert was called with the EOS id.
	ErrEOSInsert = errors.New("vocabulary: eos token id must not be inserted")

	// ErrNegativeID indicates a token id is negative.
	ErrNegativeID = errors.New("vocabulary: token id must be non-negative")
)

// ConstructError wraps a construction failure with the offending token.
type ConstructError struct {
	Token string
	Err   error
}

// Error implements the error interface.
func (e *ConstructError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("vocabulary: token %q: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("vocabulary: %v", e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ConstructError) Unwrap() error {
	return e.Err
}
