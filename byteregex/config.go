package byteregex

// Config controls byte-DFA compilation limits.
//
// These mirror the teacher's meta.Config shape: a small set of ceilings
// that trade memory for safety against pathological patterns, validated
// up front rather than discovered mid-compile.
type Config struct {
	// MaxRecursionDepth limits recursion while compiling the regexp/syntax
	// AST into an NFA. Prevents stack overflow on deeply nested patterns.
	MaxRecursionDepth int

	// MaxNFAStates caps the number of Thompson NFA states produced.
	// Default: 100,000.
	MaxNFAStates int

	// MaxDFAStates caps the number of states produced by subset
	// construction, before minimization. This prevents exponential
	// blowup from patterns like (a*)*b. Default: 50,000.
	MaxDFAStates int
}

// DefaultConfig returns sensible compilation limits.
func DefaultConfig() Config {
	return Config{
		MaxRecursionDepth: 100,
		MaxNFAStates:      100_000,
		MaxDFAStates:      50_000,
	}
}

// Validate checks that every field is within an accepted range.
func (c Config) Validate() error {
	if c.MaxRecursionDepth < 10 || c.MaxRecursionDepth > 10_000 {
		return &ConfigError{Field: "MaxRecursionDepth", Message: "must be between 10 and 10,000"}
	}
	if c.MaxNFAStates < 1 || c.MaxNFAStates > 10_000_000 {
		return &ConfigError{Field: "MaxNFAStates", Message: "must be between 1 and 10,000,000"}
	}
	if c.MaxDFAStates < 1 || c.MaxDFAStates > 10_000_000 {
		return &ConfigError{Field: "MaxDFAStates", Message: "must be between 1 and 10,000,000"}
	}
	return nil
}
