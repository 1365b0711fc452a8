// Package outlines constrains language-model token generation to a
// user-supplied regular expression.
//
// Given a regular language and a tokenizer vocabulary (token spellings
// mapped to integer IDs, plus an end-of-sequence ID), Compile precomputes
// an Index: a deterministic finite automaton over token IDs, not
// characters, whose accepted language is exactly the regex intersected
// with the set of strings the vocabulary can spell. A Guide then walks
// that automaton one token at a time, advertising at each step which
// token IDs keep the sequence extendable to a full match.
//
// Compilation proceeds regex -> byte-level DFA (package byteregex) ->
// token-level DFA (package index, cross-indexed against a vocabulary.
// Vocabulary) -> Guide (package guide). Compile wires all three together
// for the common case; the subpackages remain usable directly when finer
// control over compilation limits or rollback depth is needed.
//
// Example:
//
//	vocab, _ := vocabulary.New(3, map[string][]int{"1": {1}, "a": {2}})
//	re, err := outlines.Compile(`[1-9]`, vocab)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g := re.Guide(0)
//	fmt.Println(g.GetTokens()) // [1]
package outlines

import (
	"github.com/quanliu1991/outlines-core/guide"
	"github.com/quanliu1991/outlines-core/index"
	"github.com/quanliu1991/outlines-core/vocabulary"
)

// Regex is a compiled token-level index over a regular expression and a
// vocabulary. It is immutable and safe to share across goroutines; each
// call to Guide creates an independent cursor over it.
type Regex struct {
	idx     *index.Index
	pattern string
}

// Compile compiles pattern and cross-indexes it against vocab using
// default construction limits.
//
// Syntax is the same POSIX-ish extended syntax regexp/syntax accepts:
// character classes, alternation, concatenation, *, +, ?, bounded
// repetition, and groups. Anchors are accepted but redundant (the index
// always represents a full-string match). Lookaround, backreferences, and
// word boundaries are rejected.
func Compile(pattern string, vocab *vocabulary.Vocabulary) (*Regex, error) {
	return CompileWithConfig(pattern, vocab, index.DefaultConfig())
}

// CompileWithConfig compiles pattern with explicit compilation limits, for
// callers that need to raise or lower the default NFA/DFA state ceilings.
func CompileWithConfig(pattern string, vocab *vocabulary.Vocabulary, cfg index.Config) (*Regex, error) {
	idx, err := index.Build(pattern, vocab, cfg)
	if err != nil {
		return nil, err
	}
	return &Regex{idx: idx, pattern: pattern}, nil
}

// MustCompile is like Compile but panics on error, for use in variable
// initializers with a known-good pattern and vocabulary.
func MustCompile(pattern string, vocab *vocabulary.Vocabulary) *Regex {
	re, err := Compile(pattern, vocab)
	if err != nil {
		panic(err)
	}
	return re
}

// String returns the source pattern this Regex was compiled from.
func (re *Regex) String() string { return re.pattern }

// Index returns the underlying token-level DFA, for callers that need the
// lower-level read API (get_transitions-style introspection,
// serialization) rather than a stateful Guide.
func (re *Regex) Index() *index.Index { return re.idx }

// Guide returns a new stateful cursor over re's Index, with a rollback
// window holding at most maxRollback prior states.
func (re *Regex) Guide(maxRollback int) *guide.Guide {
	return guide.New(re.idx, maxRollback)
}
