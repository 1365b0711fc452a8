package vocabulary

import "testing"

func newTestVocab(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := New(3, map[string][]int{"1": {1}, "a": {2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestBasicInterface(t *testing.T) {
	v := newTestVocab(t)

	if v.EOSTokenID() != 3 {
		t.Fatalf("EOSTokenID() = %d, want 3", v.EOSTokenID())
	}
	ids, ok := v.Get("1")
	if !ok || len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("Get(%q) = %v, %v", "1", ids, ok)
	}
	if got := v.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	if err := v.Insert("b", 4); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ids, _ = v.Get("b")
	if len(ids) != 1 || ids[0] != 4 {
		t.Fatalf("Get(%q) after insert = %v", "b", ids)
	}
	if got := v.Len(); got != 4 {
		t.Fatalf("Len() after insert = %d, want 4", got)
	}

	if err := v.Insert("b", 5); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ids, _ = v.Get("b")
	if len(ids) != 2 || ids[0] != 4 || ids[1] != 5 {
		t.Fatalf("Get(%q) bucket order = %v, want [4 5]", "b", ids)
	}

	v.Remove("b")
	if _, ok := v.Get("b"); ok {
		t.Fatalf("Get(%q) after remove should be absent", "b")
	}
	v.Remove("b") // idempotent
}

func TestInsertEOSRejected(t *testing.T) {
	v := newTestVocab(t)
	if err := v.Insert("eos-token", v.EOSTokenID()); err == nil {
		t.Fatal("Insert with eos id should fail")
	}
}

func TestNewRejectsEOSInValues(t *testing.T) {
	if _, err := New(3, map[string][]int{"x": {3}}); err == nil {
		t.Fatal("New should reject eos id appearing in values")
	}
}

func TestNewRejectsNegativeID(t *testing.T) {
	if _, err := New(3, map[string][]int{"x": {-1}}); err == nil {
		t.Fatal("New should reject negative token ids")
	}
}

func TestEquality(t *testing.T) {
	v1, _ := New(3, map[string][]int{"a": {2}, "1": {1}})
	v2, _ := New(3, map[string][]int{"1": {1}, "a": {2}})
	if !v1.Equal(v2) {
		t.Fatal("vocabularies with same contents in different insertion order should be equal")
	}

	v3, _ := New(3, map[string][]int{"1": {1}, "a": {9}})
	if v1.Equal(v3) {
		t.Fatal("vocabularies with different bucket contents should not be equal")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	v := newTestVocab(t)
	_ = v.Insert("multi", 10)
	_ = v.Insert("multi", 11)

	data := v.Serialize()
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !got.Equal(v) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, v)
	}
}

func TestFromTokens(t *testing.T) {
	v, err := FromTokens(3, map[string]int{"1": 1, "a": 2})
	if err != nil {
		t.Fatalf("FromTokens: %v", err)
	}
	if !v.Equal(newTestVocab(t)) {
		t.Fatal("FromTokens should match equivalent New() vocabulary")
	}
}
