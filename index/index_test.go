package index

import (
	"testing"

	"github.com/quanliu1991/outlines-core/vocabulary"
)

func buildVocab(t *testing.T, eos vocabulary.TokenID, dict map[string][]int) *vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.New(eos, dict)
	if err != nil {
		t.Fatalf("vocabulary.New: %v", err)
	}
	return v
}

// Scenario 1 from the end-to-end table: eos=3, tokens {"1":[1],"a":[2]},
// regex [1-9] should allow only token 1 from the initial state.
func TestScenarioDigitClass(t *testing.T) {
	v := buildVocab(t, 3, map[string][]int{"1": {1}, "a": {2}})
	idx, err := Build("[1-9]", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := idx.GetAllowedTokens(idx.GetInitialState())
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("GetAllowedTokens(initial) = %v, want [1]", got)
	}

	next, ok := idx.GetNextState(idx.GetInitialState(), 1)
	if !ok {
		t.Fatal("expected token 1 to be allowed")
	}
	if !idx.IsFinalState(next) {
		t.Fatal("expected state after token 1 to be final")
	}
	eosTokens := idx.GetAllowedTokens(next)
	if len(eosTokens) != 1 || eosTokens[0] != 3 {
		t.Fatalf("GetAllowedTokens(final) = %v, want [3]", eosTokens)
	}
}

// Scenario 5: eos=3, tokens {"1":[1],"2":[2]}, regex [1-9] produces exactly
// two states: initial (id assigned first) and final, with the initial
// state allowing both tokens and the final state only EOS.
func TestScenarioTransitionShape(t *testing.T) {
	v := buildVocab(t, 3, map[string][]int{"1": {1}, "2": {2}})
	idx, err := Build("[1-9]", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if idx.NumStates() != 2 {
		t.Fatalf("NumStates() = %d, want 2", idx.NumStates())
	}

	initial := idx.GetInitialState()
	allowed := idx.GetAllowedTokens(initial)
	if len(allowed) != 2 || allowed[0] != 1 || allowed[1] != 2 {
		t.Fatalf("GetAllowedTokens(initial) = %v, want [1 2]", allowed)
	}

	final, ok := idx.GetNextState(initial, 1)
	if !ok {
		t.Fatal("expected token 1 from initial")
	}
	if final2, ok := idx.GetNextState(initial, 2); !ok || final2 != final {
		t.Fatal("expected token 1 and token 2 to land on the same final state")
	}
	if !idx.IsFinalState(final) {
		t.Fatal("expected the reached state to be final")
	}
	if final == initial {
		t.Fatal("expected final state to differ from initial")
	}
}

// Scenario 3: regex z[ab]z over tokens a/b/z must produce identical
// allowed-token sets after the branch, since both branches converge.
func TestScenarioBranchConvergence(t *testing.T) {
	v := buildVocab(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}})
	idx, err := Build("z[ab]z", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s0 := idx.GetInitialState()
	s1, ok := idx.GetNextState(s0, 3)
	if !ok {
		t.Fatal("expected token z from initial")
	}
	sa, ok := idx.GetNextState(s1, 1)
	if !ok {
		t.Fatal("expected token a after z")
	}
	sb, ok := idx.GetNextState(s1, 2)
	if !ok {
		t.Fatal("expected token b after z")
	}
	if len(idx.GetAllowedTokens(sa)) != len(idx.GetAllowedTokens(sb)) {
		t.Fatal("expected identical allowed-token set after either branch")
	}
	sFinal, ok := idx.GetNextState(sa, 3)
	if !ok {
		t.Fatal("expected token z to close the match")
	}
	finalAllowed := idx.GetAllowedTokens(sFinal)
	if len(finalAllowed) != 1 || finalAllowed[0] != 4 {
		t.Fatalf("GetAllowedTokens(final) = %v, want [4]", finalAllowed)
	}
}

// Scenario 4: a vocabulary built from byte keys and one built from
// equivalent text keys must produce equal indexes.
func TestScenarioByteVsTextKeysEqual(t *testing.T) {
	vText := buildVocab(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}})
	vBytes := buildVocab(t, 4, map[string][]int{string([]byte{'a'}): {1}, string([]byte{'b'}): {2}, string([]byte{'z'}): {3}})

	idx1, err := Build("z[ab]z", vText, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx2, err := Build("z[ab]z", vBytes, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx1.Equal(idx2) {
		t.Fatal("expected byte-key and text-key vocabularies to build equal indexes")
	}
}

func TestDeterministicConstruction(t *testing.T) {
	v := buildVocab(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}})
	idx1, err := Build("z[ab]z", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx2, err := Build("z[ab]z", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !idx1.Equal(idx2) {
		t.Fatal("expected two constructions from identical inputs to compare equal")
	}
}

func TestEmptyLanguageRejected(t *testing.T) {
	v := buildVocab(t, 1, map[string][]int{"x": {2}})
	_, err := Build("y", v, DefaultConfig())
	if err == nil {
		t.Fatal("expected a build with no vocabulary-expressible match to fail")
	}
}

func TestNoStuckStates(t *testing.T) {
	v := buildVocab(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}})
	idx, err := Build("z[ab]z", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for s := 0; s < idx.NumStates(); s++ {
		if len(idx.GetAllowedTokens(State(s))) == 0 {
			t.Fatalf("state %d has no outgoing tokens (stuck state survived pruning)", s)
		}
	}
}

func TestFinalStateOnlyEOSSelfLoop(t *testing.T) {
	v := buildVocab(t, 3, map[string][]int{"1": {1}, "a": {2}})
	idx, err := Build("[1-9]", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, f := range idx.GetFinalStates() {
		row := idx.GetTransitions()[f]
		if len(row) != 1 {
			t.Fatalf("final state %d has %d transitions, want exactly 1", f, len(row))
		}
		target, ok := row[3]
		if !ok || target != f {
			t.Fatalf("final state %d does not self-loop on eos", f)
		}
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	v := buildVocab(t, 4, map[string][]int{"a": {1}, "b": {2}, "z": {3}})
	idx, err := Build("z[ab]z", v, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data := idx.Serialize()
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !idx.Equal(got) {
		t.Fatal("expected round-tripped Index to equal the original")
	}
}

func TestLiteralCoverage(t *testing.T) {
	v := buildVocab(t, 99, map[string][]int{"cat": {1}, "dog": {2}, "catalog": {3}})
	report, err := CheckLiteralCoverage(v, []string{"cat", "fish"})
	if err != nil {
		t.Fatalf("CheckLiteralCoverage: %v", err)
	}
	if len(report.Matched) != 1 || report.Matched[0] != "cat" {
		t.Fatalf("Matched = %v, want [cat]", report.Matched)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0] != "fish" {
		t.Fatalf("Unmatched = %v, want [fish]", report.Unmatched)
	}
}
