package index

import (
	"github.com/coregx/ahocorasick"

	"github.com/quanliu1991/outlines-core/vocabulary"
)

// CoverageReport summarizes how much of a literal alphabet a vocabulary's
// tokens can spell, independent of any particular regex. It is a
// diagnostic aid for callers choosing a vocabulary for a known character
// set (e.g. "does this tokenizer have byte-fallback tokens for every
// digit and punctuation mark I need"), not part of Index construction.
type CoverageReport struct {
	// Literals is the input alphabet that was checked.
	Literals []string
	// Matched holds every literal found as a substring of at least one
	// vocabulary token spelling.
	Matched []string
	// Unmatched holds every literal that no token spelling contains.
	Unmatched []string
}

// CheckLiteralCoverage reports which of literals appear as a substring of
// at least one token spelling in vocab. Each literal gets its own
// single-pattern Aho-Corasick automaton, queried against every token
// spelling via the documented IsMatch haystack-search surface: unlike the
// core per-state scan in index.go, this check has no DFA-state dimension,
// so a haystack-oriented matcher is exactly the right tool for it (see
// DESIGN.md for why the core scan cannot reuse the same automaton).
func CheckLiteralCoverage(vocab *vocabulary.Vocabulary, literals []string) (*CoverageReport, error) {
	tokens := vocab.Tokens()
	report := &CoverageReport{Literals: literals}

	for _, lit := range literals {
		builder := ahocorasick.NewBuilder()
		builder.AddPattern([]byte(lit))
		auto, err := builder.Build()
		if err != nil {
			return nil, err
		}

		matched := false
		for _, tok := range tokens {
			if auto.IsMatch([]byte(tok)) {
				matched = true
				break
			}
		}
		if matched {
			report.Matched = append(report.Matched, lit)
		} else {
			report.Unmatched = append(report.Unmatched, lit)
		}
	}
	return report, nil
}
