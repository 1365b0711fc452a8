package guide

import (
	"testing"
	"unsafe"

	"github.com/quanliu1991/outlines-core/index"
	"github.com/quanliu1991/outlines-core/vocabulary"
)

func buildIndex(t *testing.T, eos vocabulary.TokenID, dict map[string][]int, pattern string) *index.Index {
	t.Helper()
	v, err := vocabulary.New(eos, dict)
	if err != nil {
		t.Fatalf("vocabulary.New: %v", err)
	}
	idx, err := index.Build(pattern, v, index.DefaultConfig())
	if err != nil {
		t.Fatalf("index.Build: %v", err)
	}
	return idx
}

// Scenario 1 / 1b: eos=3, tokens {"1":[1],"a":[2]}, regex [1-9].
func TestInterface(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 0)

	tokens := g.GetTokens()
	if len(tokens) != 1 || tokens[0] != 1 {
		t.Fatalf("GetTokens() = %v, want [1]", tokens)
	}

	afterOne, err := g.Advance(1)
	if err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if len(afterOne) != 1 || afterOne[0] != 3 {
		t.Fatalf("Advance(1) allowed = %v, want [3]", afterOne)
	}
	if g.IsFinished() {
		t.Fatal("expected not finished merely by entering a final state")
	}

	if _, err := g.Advance(3); err != nil {
		t.Fatalf("Advance(3): %v", err)
	}
	if !g.IsFinished() {
		t.Fatal("expected finished after consuming EOS")
	}
}

func TestRollback(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 3)

	initial := g.GetState()
	initialTokens := g.GetTokens()

	if _, err := g.Advance(1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if err := g.RollbackState(1); err != nil {
		t.Fatalf("RollbackState(1): %v", err)
	}
	if g.GetState() != initial {
		t.Fatal("expected rollback to restore the initial state")
	}
	got := g.GetTokens()
	if len(got) != len(initialTokens) || got[0] != initialTokens[0] {
		t.Fatal("expected rollback to restore the allowed-token set")
	}
	if g.IsFinished() {
		t.Fatal("expected not finished after rollback")
	}
}

func TestRollbackOverflow(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 3)

	if _, err := g.Advance(1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if err := g.RollbackState(5); err == nil {
		t.Fatal("expected rollback(5) to overflow a 1-deep buffer")
	}
	// A failed rollback must not mutate state.
	if g.GetState() == idx.GetInitialState() {
		t.Fatal("expected the failed rollback to leave the post-advance state untouched")
	}
}

func TestAcceptsTokensCorrectness(t *testing.T) {
	idx := buildIndex(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}}, "z[ab]z")
	g := New(idx, 0)

	if !g.AcceptsTokens([]vocabulary.TokenID{3, 1, 3, 4}) {
		t.Fatal("expected zaz + eos to be accepted")
	}
	if !g.AcceptsTokens([]vocabulary.TokenID{3, 2, 3, 4}) {
		t.Fatal("expected zbz + eos to be accepted")
	}
	if g.AcceptsTokens([]vocabulary.TokenID{1, 3, 1}) {
		t.Fatal("expected a malformed sequence to be rejected")
	}
	// Accepts must not mutate the guide.
	if g.GetState() != idx.GetInitialState() {
		t.Fatal("expected AcceptsTokens to leave the guide's state untouched")
	}
}

func TestNoTransitionLeavesStateUnchanged(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 1)

	before := g.GetState()
	if _, err := g.Advance(2); err == nil {
		t.Fatal("expected token 2 (\"a\") to be disallowed from the initial state")
	}
	if g.GetState() != before {
		t.Fatal("expected a failed advance to leave current state unchanged")
	}
	if g.RollbackDepth() != 0 {
		t.Fatal("expected a failed advance not to consume a rollback slot")
	}
}

func TestEquality(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g1 := New(idx, 2)
	g2 := New(idx, 2)
	if !g1.Equal(g2) {
		t.Fatal("expected two fresh guides over the same index to be equal")
	}
	if _, err := g1.Advance(1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if g1.Equal(g2) {
		t.Fatal("expected guides to differ after only one has advanced")
	}
	if _, err := g2.Advance(1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if !g1.Equal(g2) {
		t.Fatal("expected guides to converge after identical advances")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 2)
	if _, err := g.Advance(1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}

	data := g.Serialize()
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("expected round-tripped Guide to equal the original")
	}
}

func TestWriteMaskInto(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 0)

	words := make([]uint32, 1)
	words[0] = 0xFFFFFFFF // pre-existing contents must be irrelevant
	ptr := uintptr(unsafe.Pointer(&words[0]))

	if err := g.WriteMaskInto(ptr, 1, 4); err != nil {
		t.Fatalf("WriteMaskInto: %v", err)
	}
	if words[0] != 1<<1 {
		t.Fatalf("words[0] = %#x, want bit 1 set only", words[0])
	}
}

func TestWriteMaskIntoInterface(t *testing.T) {
	idx := buildIndex(t, 3, map[string][]int{"1": {1}, "a": {2}}, "[1-9]")
	g := New(idx, 0)
	words := make([]uint32, 1)
	ptr := uintptr(unsafe.Pointer(&words[0]))

	if err := g.WriteMaskInto(ptr, 0, 4); err == nil {
		t.Fatal("expected nElements=0 to be rejected")
	}
	if err := g.WriteMaskInto(ptr, 1, 8); err == nil {
		t.Fatal("expected elementSize=8 to be rejected")
	}
	if err := g.WriteMaskInto(0, 1, 4); err == nil {
		t.Fatal("expected a null pointer to be rejected")
	}
	if err := g.WriteMaskInto(ptr+1, 1, 4); err == nil {
		t.Fatal("expected a misaligned pointer to be rejected")
	}
}

func TestBitmaskWordsGPT2Convention(t *testing.T) {
	if got := BitmaskWords(50257); got != 1571 {
		t.Fatalf("BitmaskWords(50257) = %d, want 1571", got)
	}
}
