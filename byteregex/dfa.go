package byteregex

import (
	"encoding/binary"
	"hash/fnv"
	"sort"

	"github.com/quanliu1991/outlines-core/internal/conv"
	"github.com/quanliu1991/outlines-core/internal/sparse"
)

// deadState is the DFA's implicit dead/reject state: once entered it is
// never left, and it is never final. It occupies index 0 of the transition
// table, with every class looping back to itself; Step returns
// (deadState, false) to signal it.
const deadState StateID = 0

// DFA is a minimized, byte-level deterministic finite automaton accepting
// exactly the strings that fully match the pattern it was compiled from.
// State 0 is always the dead state. The start state is state 1, except for a
// pattern that matches nothing, whose start state is the dead state itself.
type DFA struct {
	classes     ByteClasses
	numClasses  int
	transitions []StateID // numStates * numClasses, flattened
	final       []bool    // numStates
	start       StateID
	numStates   int
}

// Start returns the DFA's initial state.
func (d *DFA) Start() StateID { return d.start }

// IsFinal reports whether s is an accepting state.
func (d *DFA) IsFinal(s StateID) bool {
	if int(s) >= len(d.final) {
		return false
	}
	return d.final[s]
}

// Step returns the state reached from s on byte b, and false if that state
// is the dead state (no further match is possible).
func (d *DFA) Step(s StateID, b byte) (StateID, bool) {
	cls := d.classes.Get(b)
	next := d.transitions[int(s)*d.numClasses+int(cls)]
	return next, next != deadState
}

// NumStates returns the number of live states, including the dead state.
func (d *DFA) NumStates() int { return d.numStates }

// ByteClasses exposes the alphabet reduction table used by this DFA, so
// callers that need to enumerate representative bytes (rather than all 256)
// can do so without recomputing it.
func (d *DFA) ByteClasses() ByteClasses { return d.classes }

// Compile parses and compiles pattern directly into a minimized byte DFA.
func Compile(pattern string, cfg CompilerConfig) (*DFA, error) {
	nfaCompiler := NewCompiler(cfg)
	n, err := nfaCompiler.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return buildDFA(n, cfg.Config)
}

// stateKey identifies a subset-construction DFA state by the sorted set of
// NFA state IDs it represents, the same hashed-sorted-set deduplication
// technique the teacher's lazy DFA cache uses for its state keys.
type stateKey struct {
	hash uint64
	ids  string // sorted IDs, binary-packed, used to resolve hash collisions
}

func makeStateKey(ids []uint32) stateKey {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	buf := make([]byte, len(ids)*4)
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], id)
	}
	h := fnv.New64a()
	_, _ = h.Write(buf)
	return stateKey{hash: h.Sum64(), ids: string(buf)}
}

// buildDFA performs subset construction over n's byte alphabet classes,
// then minimizes the result with partition refinement.
func buildDFA(n *NFA, cfg Config) (*DFA, error) {
	classes := computeByteClasses(n.states)
	numClasses := classes.AlphabetLen()
	reps := classes.Representatives()

	seen := make(map[uint64][]struct {
		key stateKey
		idx int
	})
	var subsets [][]uint32 // dfa state index -> NFA id set
	var final []bool
	var trans []StateID // flattened, filled after all subsets discovered

	closureSet := sparse.NewSparseSet(uint32(len(n.states)))
	stack := make([]StateID, 0, 32)

	lookup := func(key stateKey) (int, bool) {
		for _, e := range seen[key.hash] {
			if e.key.ids == key.ids {
				return e.idx, true
			}
		}
		return 0, false
	}
	intern := func(ids []uint32) int {
		key := makeStateKey(append([]uint32(nil), ids...))
		if idx, ok := lookup(key); ok {
			return idx
		}
		idx := len(subsets)
		subsets = append(subsets, key2ids(key))
		isFinal := false
		for _, id := range subsets[idx] {
			if n.states[id].kind == StateMatch {
				isFinal = true
				break
			}
		}
		final = append(final, isFinal)
		seen[key.hash] = append(seen[key.hash], struct {
			key stateKey
			idx int
		}{key, idx})
		return idx
	}

	// Dead state occupies index 0 with an empty subset.
	subsets = append(subsets, nil)
	final = append(final, false)
	deadKey := makeStateKey(nil)
	seen[deadKey.hash] = append(seen[deadKey.hash], struct {
		key stateKey
		idx int
	}{deadKey, 0})

	closureSet.Clear()
	stack = n.epsilonClosure(closureSet, stack, n.start)
	startIDs := append([]uint32(nil), closureSet.Values()...)
	startIdx := intern(startIDs)

	worklist := []int{startIdx}
	processed := make(map[int]bool)

	// transitions grows as states are discovered; reprocess with a
	// capacity-safe approach: index directly, extending the slice.
	ensureTransRow := func(idx int) {
		need := (idx + 1) * numClasses
		for len(trans) < need {
			trans = append(trans, deadState)
		}
	}
	ensureTransRow(0)

	for len(worklist) > 0 {
		idx := worklist[0]
		worklist = worklist[1:]
		if processed[idx] {
			continue
		}
		processed[idx] = true
		ensureTransRow(idx)

		ids := subsets[idx]
		for ci, b := range reps {
			var targets []uint32
			for _, id := range ids {
				s := &n.states[id]
				switch s.kind {
				case StateByteRange:
					if b >= s.lo && b <= s.hi {
						targets = append(targets, uint32(s.next))
					}
				case StateSparse:
					for _, t := range s.transitions {
						if b >= t.Lo && b <= t.Hi {
							targets = append(targets, uint32(t.Next))
						}
					}
				}
			}
			if len(targets) == 0 {
				continue
			}
			closureSet.Clear()
			stack = n.epsilonClosure(closureSet, stack, idsToStateIDs(targets)...)
			nextIDs := append([]uint32(nil), closureSet.Values()...)
			if len(nextIDs) == 0 {
				continue
			}
			nextIdx := intern(nextIDs)
			ensureTransRow(idx)
			ensureTransRow(nextIdx)
			trans[idx*numClasses+ci] = StateID(conv.IntToUint32(nextIdx))
			if !processed[nextIdx] {
				worklist = append(worklist, nextIdx)
			}

			if len(subsets) > cfg.MaxDFAStates {
				return nil, ErrTooComplex
			}
		}
	}

	numStates := len(subsets)
	ensureTransRow(numStates - 1)
	dfa := &DFA{
		classes:     classes,
		numClasses:  numClasses,
		transitions: trans,
		final:       final,
		start:       StateID(startIdx),
		numStates:   numStates,
	}

	return minimizeDFA(dfa), nil
}

func key2ids(k stateKey) []uint32 {
	n := len(k.ids) / 4
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		ids[i] = binary.LittleEndian.Uint32([]byte(k.ids[i*4 : i*4+4]))
	}
	return ids
}

func idsToStateIDs(ids []uint32) []StateID {
	out := make([]StateID, len(ids))
	for i, id := range ids {
		out[i] = StateID(id)
	}
	return out
}

// minimizeDFA applies Moore's partition-refinement algorithm: states start
// partitioned by finality, then repeatedly split any block whose members
// transition to different blocks on some class, until no block splits
// further. This is the "Hopcroft or equivalent" minimization step; Moore's
// algorithm is used instead of Hopcroft's for a simpler, easier-to-verify
// fixpoint loop, at the cost of a slower worst case that does not matter at
// these automaton sizes.
func minimizeDFA(d *DFA) *DFA {
	n := d.numStates
	block := make([]int, n)
	for s := 0; s < n; s++ {
		if d.final[s] {
			block[s] = 1
		}
	}
	numBlocks := 2
	if !containsFinal(d.final) {
		numBlocks = 1
	}

	for {
		signature := make([]string, n)
		for s := 0; s < n; s++ {
			buf := make([]byte, 4*(d.numClasses+1))
			binary.LittleEndian.PutUint32(buf, uint32(block[s]))
			for c := 0; c < d.numClasses; c++ {
				t := d.transitions[s*d.numClasses+c]
				binary.LittleEndian.PutUint32(buf[4*(c+1):], uint32(block[int(t)]))
			}
			signature[s] = string(buf)
		}

		sigToBlock := make(map[string]int)
		newBlock := make([]int, n)
		next := 0
		for s := 0; s < n; s++ {
			id, ok := sigToBlock[signature[s]]
			if !ok {
				id = next
				sigToBlock[signature[s]] = id
				next++
			}
			newBlock[s] = id
		}

		if next == numBlocks {
			block = newBlock
			break
		}
		block = newBlock
		numBlocks = next
	}

	// Rebuild the DFA with one representative state per block, dense
	// renumbering so the dead state stays at 0 and the start state is
	// whichever block index its representative landed in.
	repOf := make([]int, numBlocks)
	for i := range repOf {
		repOf[i] = -1
	}
	for s := 0; s < n; s++ {
		if repOf[block[s]] == -1 {
			repOf[block[s]] = s
		}
	}

	deadBlock := block[0]
	order := make([]int, 0, numBlocks)
	order = append(order, deadBlock)
	for b := 0; b < numBlocks; b++ {
		if b != deadBlock {
			order = append(order, b)
		}
	}
	blockToNew := make(map[int]int, numBlocks)
	for newIdx, b := range order {
		blockToNew[b] = newIdx
	}

	newFinal := make([]bool, numBlocks)
	newTrans := make([]StateID, numBlocks*d.numClasses)
	for b, rep := range order {
		src := repOf[rep]
		newFinal[b] = d.final[src]
		for c := 0; c < d.numClasses; c++ {
			t := d.transitions[src*d.numClasses+c]
			newTrans[b*d.numClasses+c] = StateID(blockToNew[block[t]])
		}
	}

	return &DFA{
		classes:     d.classes,
		numClasses:  d.numClasses,
		transitions: newTrans,
		final:       newFinal,
		start:       StateID(blockToNew[block[int(d.start)]]),
		numStates:   numBlocks,
	}
}

func containsFinal(final []bool) bool {
	for _, f := range final {
		if f {
			return true
		}
	}
	return false
}
