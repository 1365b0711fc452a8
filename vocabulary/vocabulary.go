package vocabulary

import (
	"fmt"
	"sort"
)

// TokenID identifies a token in a tokenizer's vocabulary.
type TokenID uint32

// Vocabulary is an ordered, mutable map from a token's byte spelling to the
// list of token IDs that share that spelling, plus a reserved EOS id.
//
// Several IDs may share a spelling (e.g. normalized duplicates emitted by a
// tokenizer); the bucket order for a given spelling is significant and is
// preserved across Insert calls. Lookup by text or raw bytes is identical:
// Go strings are themselves byte sequences, so there is only one key type
// here (unlike the source implementation's separate str/bytes entry
// points — see DESIGN.md).
//
// Vocabulary is mutable until it is passed to index.Build; the Index
// captures its own snapshot and Vocabulary may continue to be mutated
// afterward without affecting any Index already built from it.
type Vocabulary struct {
	eos     TokenID
	buckets map[string][]TokenID
}

// New creates a Vocabulary from an EOS token id and a dict of token spelling
// to non-empty list of token ids. Returns ErrEOSInValues if eos appears
// among the values, or ErrNegativeID if any id is negative.
func New(eos TokenID, dict map[string][]int) (*Vocabulary, error) {
	v := &Vocabulary{
		eos:     eos,
		buckets: make(map[string][]TokenID, len(dict)),
	}
	for token, ids := range dict {
		if len(ids) == 0 {
			continue
		}
		bucket := make([]TokenID, 0, len(ids))
		for _, id := range ids {
			if id < 0 {
				return nil, &ConstructError{Token: token, Err: ErrNegativeID}
			}
			tid := TokenID(id)
			if tid == eos {
				return nil, &ConstructError{Token: token, Err: ErrEOSInValues}
			}
			bucket = append(bucket, tid)
		}
		v.buckets[token] = bucket
	}
	return v, nil
}

// EOSTokenID returns the vocabulary's reserved end-of-sequence token id.
func (v *Vocabulary) EOSTokenID() TokenID {
	return v.eos
}

// Insert appends id to the bucket for token, creating the bucket if it does
// not yet exist. Returns ErrEOSInsert if id equals the vocabulary's EOS id.
func (v *Vocabulary) Insert(token string, id TokenID) error {
	if id == v.eos {
		return &ConstructError{Token: token, Err: ErrEOSInsert}
	}
	v.buckets[token] = append(v.buckets[token], id)
	return nil
}

// Remove deletes the bucket for token. Idempotent: removing an absent
// token is a no-op.
func (v *Vocabulary) Remove(token string) {
	delete(v.buckets, token)
}

// Get returns the list of token ids sharing the given spelling. The second
// return value is false if the spelling has no bucket.
func (v *Vocabulary) Get(token string) ([]TokenID, bool) {
	ids, ok := v.buckets[token]
	return ids, ok
}

// Len returns the count of unique token ids across all buckets, plus one
// for the EOS id.
func (v *Vocabulary) Len() int {
	unique := make(map[TokenID]struct{})
	for _, ids := range v.buckets {
		for _, id := range ids {
			unique[id] = struct{}{}
		}
	}
	return len(unique) + 1
}

// Tokens returns the set of distinct token spellings currently registered,
// in an unspecified order.
func (v *Vocabulary) Tokens() []string {
	tokens := make([]string, 0, len(v.buckets))
	for t := range v.buckets {
		tokens = append(tokens, t)
	}
	return tokens
}

// Equal reports whether two vocabularies have the same EOS id and the same
// bucket contents. Bucket order within a spelling is significant;
// insertion order across spellings is not.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if other == nil {
		return false
	}
	if v.eos != other.eos {
		return false
	}
	if len(v.buckets) != len(other.buckets) {
		return false
	}
	for token, ids := range v.buckets {
		oids, ok := other.buckets[token]
		if !ok || len(ids) != len(oids) {
			return false
		}
		for i := range ids {
			if ids[i] != oids[i] {
				return false
			}
		}
	}
	return true
}

// String returns a human-readable summary of the vocabulary.
func (v *Vocabulary) String() string {
	return fmt.Sprintf("Vocabulary{eos: %d, tokens: %d, ids: %d}", v.eos, len(v.buckets), v.Len()-1)
}

// Loader is the seam external binding code uses to produce a Vocabulary
// from a pretrained tokenizer registry (out of scope for this module per
// spec.md §1 — tokenizer loading is an opaque external collaborator).
// A Loader must return a Vocabulary satisfying all invariants in §3: eos
// never a value, ids non-negative.
type Loader func(modelID string, revision string) (*Vocabulary, error)

// FromTokens builds a Vocabulary directly from a flat token->id mapping,
// the shape a tokenizer loader typically produces after decoding its
// vocab file. Unlike New, every token maps to exactly one id; duplicate
// spellings across distinct ids must be merged by the caller beforehand
// or supplied to New instead.
func FromTokens(eos TokenID, tokenToID map[string]int) (*Vocabulary, error) {
	dict := make(map[string][]int, len(tokenToID))
	for tok, id := range tokenToID {
		dict[tok] = []int{id}
	}
	return New(eos, dict)
}

// SortedTokens returns the vocabulary's spellings in deterministic order,
// used by serialization and by the index builder's trie construction.
func (v *Vocabulary) SortedTokens() []string {
	tokens := v.Tokens()
	sort.Strings(tokens)
	return tokens
}
