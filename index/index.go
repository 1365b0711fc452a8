// Package index builds and represents the token-level DFA ("Index") that
// lifts a byte-level regex DFA over a tokenizer vocabulary: the automaton
// whose alphabet is token IDs instead of bytes, whose accepted language is
// exactly the regex intersected with the set of strings the vocabulary can
// spell.
//
// This is the part of the system where precomputing correctly and
// compactly matters most: cross-indexing a byte-DFA against a vocabulary
// of tens or hundreds of thousands of multi-byte tokens, so that every
// (state, token) transition downstream Guides need is already resolved.
package index

import (
	"fmt"
	"sort"

	"github.com/quanliu1991/outlines-core/byteregex"
	"github.com/quanliu1991/outlines-core/internal/conv"
	"github.com/quanliu1991/outlines-core/vocabulary"
)

// State identifies an Index state. After construction, states are densely
// numbered [0, NumStates()) with the initial state always at 0.
type State uint32

// Index is the immutable, serializable token-level DFA produced by Build.
// Many Guides may share one Index by reference; it owns no mutable state
// and retains no reference to the Vocabulary it was built from.
type Index struct {
	initial State
	final   map[State]bool
	trans   []map[vocabulary.TokenID]State // trans[s] for s in [0, len(trans))
	eos     vocabulary.TokenID
}

// Build compiles pattern into a byte-DFA and cross-indexes it against
// vocab, producing a token-level DFA per the reachability-frontier /
// per-state-scan / finality-promotion / stuck-state-pruning algorithm:
// each popped byte-DFA state is scanned against every distinct token
// spelling via one trie DFS, live transitions are recorded and their
// targets enqueued, final byte-DFA states are promoted to EOS self-loops,
// and states that can never reach a final state afterward are pruned and
// the survivors renumbered densely.
func Build(pattern string, vocab *vocabulary.Vocabulary, cfg Config) (*Index, error) {
	dfa, err := byteregex.Compile(pattern, cfg.Compiler)
	if err != nil {
		return nil, &BuildError{Pattern: pattern, Err: fmt.Errorf("%w: %w", ErrUnsupportedRegex, err)}
	}

	tokens := vocab.SortedTokens()
	tr := buildTrie(tokens)
	eos := vocab.EOSTokenID()

	// raw maps the original byte-DFA state space (sparse: not every byte-
	// DFA state is necessarily reachable via vocabulary tokens) to its
	// outgoing token transitions, built by one trie DFS per frontier
	// state.
	raw := make(map[byteregex.StateID]map[vocabulary.TokenID]byteregex.StateID)
	order := []byteregex.StateID{dfa.Start()} // discovery order, for determinism
	seen := map[byteregex.StateID]bool{dfa.Start(): true}

	for i := 0; i < len(order); i++ {
		q := order[i]

		if dfa.IsFinal(q) {
			// Final states only ever offer the EOS self-loop: any other
			// token transitions a scan would find are irrelevant, so skip
			// the scan entirely.
			raw[q] = map[vocabulary.TokenID]byteregex.StateID{eos: q}
			continue
		}

		row := make(map[vocabulary.TokenID]byteregex.StateID)
		scanState(tr.root, q, dfa, func(tokenIdx int, end byteregex.StateID) {
			for _, id := range bucketIDsFor(vocab, tr.tokens[tokenIdx]) {
				row[id] = end
			}
			if !seen[end] {
				seen[end] = true
				order = append(order, end)
			}
		})
		raw[q] = row
	}

	survivors, err := pruneStuckStates(raw, dfa)
	if err != nil {
		return nil, &BuildError{Pattern: pattern, Err: err}
	}

	return renumber(dfa.Start(), raw, survivors, dfa, eos), nil
}

// bucketIDsFor looks up the token IDs sharing a spelling. The trie is
// built from Vocabulary.SortedTokens, so the lookup always succeeds.
func bucketIDsFor(vocab *vocabulary.Vocabulary, token string) []vocabulary.TokenID {
	ids, _ := vocab.Get(token)
	return ids
}

// scanState walks the shared prefix trie from its root while simultaneously
// stepping the byte-DFA from state q, invoking emit for every token
// spelling whose full byte sequence keeps the byte-DFA alive. Branches
// that hit the byte-DFA's dead state are pruned without visiting the
// tokens beneath them, which is the whole benefit of scanning through a
// trie rather than independently simulating every token.
func scanState(n *trieNode, q byteregex.StateID, dfa *byteregex.DFA, emit func(tokenIdx int, end byteregex.StateID)) {
	if n.tokenIdx >= 0 {
		emit(n.tokenIdx, q)
	}
	for b, child := range n.children {
		next, ok := dfa.Step(q, b)
		if !ok {
			continue
		}
		scanState(child, next, dfa, emit)
	}
}

// pruneStuckStates computes the set of byte-DFA states that can reach a
// final state via raw's transitions (a backward reachability closure from
// the final states), discarding the rest as stuck: reachable but unable to
// ever complete a match. Returns ErrEmptyLanguage if no state at all can
// reach a final state.
func pruneStuckStates(raw map[byteregex.StateID]map[vocabulary.TokenID]byteregex.StateID, dfa *byteregex.DFA) (map[byteregex.StateID]bool, error) {
	reverse := make(map[byteregex.StateID][]byteregex.StateID)
	var finals []byteregex.StateID
	for q, row := range raw {
		if dfa.IsFinal(q) {
			finals = append(finals, q)
		}
		for _, target := range row {
			reverse[target] = append(reverse[target], q)
		}
	}

	canReach := make(map[byteregex.StateID]bool, len(finals))
	queue := append([]byteregex.StateID(nil), finals...)
	for _, f := range finals {
		canReach[f] = true
	}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, pred := range reverse[q] {
			if !canReach[pred] {
				canReach[pred] = true
				queue = append(queue, pred)
			}
		}
	}

	if len(canReach) == 0 {
		return nil, ErrEmptyLanguage
	}
	return canReach, nil
}

// renumber produces the final Index: only states in survivors are kept,
// each surviving state's transitions are filtered to targets that also
// survive, and state IDs are rewritten to a dense range starting at 0
// with the initial state first and the rest in ascending byte-DFA state
// order, for reproducibility.
func renumber(start byteregex.StateID, raw map[byteregex.StateID]map[vocabulary.TokenID]byteregex.StateID, survivors map[byteregex.StateID]bool, dfa *byteregex.DFA, eos vocabulary.TokenID) *Index {
	ordered := make([]byteregex.StateID, 0, len(survivors))
	for q := range survivors {
		ordered = append(ordered, q)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i] == start {
			return true
		}
		if ordered[j] == start {
			return false
		}
		return ordered[i] < ordered[j]
	})

	idOf := make(map[byteregex.StateID]State, len(ordered))
	for newID, q := range ordered {
		idOf[q] = State(conv.IntToUint32(newID))
	}

	idx := &Index{
		initial: idOf[start],
		final:   make(map[State]bool),
		trans:   make([]map[vocabulary.TokenID]State, len(ordered)),
		eos:     eos,
	}

	for q, newID := range idOf {
		if dfa.IsFinal(q) {
			idx.final[newID] = true
		}
		row := make(map[vocabulary.TokenID]State)
		for tid, target := range raw[q] {
			if targetID, ok := idOf[target]; ok {
				row[tid] = targetID
			}
		}
		idx.trans[newID] = row
	}

	return idx
}

// GetInitialState returns the state a freshly constructed Guide starts in.
func (idx *Index) GetInitialState() State { return idx.initial }

// IsFinalState reports whether s is a state from which EOS is allowed.
func (idx *Index) IsFinalState(s State) bool { return idx.final[s] }

// GetFinalStates returns every final state.
func (idx *Index) GetFinalStates() []State {
	out := make([]State, 0, len(idx.final))
	for s := range idx.final {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetAllowedTokens returns the token IDs permitted from s, sorted
// ascending. Returns nil if s is out of range (including the zero-length
// Index produced by a regex with no vocabulary-expressible strings, which
// Build rejects before any Index is returned).
func (idx *Index) GetAllowedTokens(s State) []vocabulary.TokenID {
	if int(s) >= len(idx.trans) {
		return nil
	}
	row := idx.trans[s]
	out := make([]vocabulary.TokenID, 0, len(row))
	for tid := range row {
		out = append(out, tid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetNextState returns the state reached from s on tid, and false if tid
// is not allowed from s.
func (idx *Index) GetNextState(s State, tid vocabulary.TokenID) (State, bool) {
	if int(s) >= len(idx.trans) {
		return 0, false
	}
	next, ok := idx.trans[s][tid]
	return next, ok
}

// GetTransitions returns the full transition table, state by state, for
// introspection and serialization.
func (idx *Index) GetTransitions() map[State]map[vocabulary.TokenID]State {
	out := make(map[State]map[vocabulary.TokenID]State, len(idx.trans))
	for s, row := range idx.trans {
		cp := make(map[vocabulary.TokenID]State, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[State(s)] = cp
	}
	return out
}

// NumStates returns the number of states in the Index.
func (idx *Index) NumStates() int { return len(idx.trans) }

// EOSTokenID returns the EOS token id this Index was built with.
func (idx *Index) EOSTokenID() vocabulary.TokenID { return idx.eos }

// Equal reports whether two Indexes are structurally identical: same
// initial state, same final states, same transition table, same EOS id.
func (idx *Index) Equal(other *Index) bool {
	if other == nil {
		return false
	}
	if idx.initial != other.initial || idx.eos != other.eos {
		return false
	}
	if len(idx.trans) != len(other.trans) {
		return false
	}
	if len(idx.final) != len(other.final) {
		return false
	}
	for s := range idx.final {
		if !other.final[s] {
			return false
		}
	}
	for s, row := range idx.trans {
		orow := other.trans[s]
		if len(row) != len(orow) {
			return false
		}
		for tid, target := range row {
			if orow[tid] != target {
				return false
			}
		}
	}
	return true
}
