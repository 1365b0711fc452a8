package index

import (
	"errors"
	"fmt"
)

// Sentinel errors for index construction, checked with errors.Is.
var (
	// ErrUnsupportedRegex is returned when the pattern fails to compile
	// into a byte-DFA (see byteregex.ErrUnsupportedRegex).
	ErrUnsupportedRegex = errors.New("index: unsupported regex")

	// ErrEmptyLanguage is returned when, after construction, no state can
	// reach a final state: the regex admits no vocabulary-expressible
	// string.
	ErrEmptyLanguage = errors.New("index: regex admits no vocabulary-expressible string")
)

// BuildError wraps an index construction failure with the source pattern.
type BuildError struct {
	Pattern string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index: build %q: %v", e.Pattern, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
