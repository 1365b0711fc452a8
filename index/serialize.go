package index

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/quanliu1991/outlines-core/vocabulary"
)

const magic uint32 = 0x49445831 // "IDX1"

// Serialize encodes the Index as a length-prefixed, field-tagged binary
// blob: magic, eos, initial state, final-state count + ids, then per-state
// transition rows in ascending state order, each row's entries sorted by
// token ID ascending (mirrors the deterministic ordering
// get_transitions/get_allowed_tokens already guarantee).
func (idx *Index) Serialize() []byte {
	var buf []byte
	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	putU32(magic)
	putU32(uint32(idx.eos))
	putU32(uint32(idx.initial))

	finals := idx.GetFinalStates()
	putU32(uint32(len(finals)))
	for _, s := range finals {
		putU32(uint32(s))
	}

	putU32(uint32(len(idx.trans)))
	for s, row := range idx.trans {
		putU32(uint32(s))
		ids := make([]vocabulary.TokenID, 0, len(row))
		for tid := range row {
			ids = append(ids, tid)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		putU32(uint32(len(ids)))
		for _, tid := range ids {
			putU32(uint32(tid))
			putU32(uint32(row[tid]))
		}
	}

	return buf
}

// Deserialize reconstructs an Index from bytes produced by Serialize.
func Deserialize(data []byte) (*Index, error) {
	r := &byteReader{data: data}

	m, err := r.u32()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("index: bad magic %#x", m)
	}

	eos, err := r.u32()
	if err != nil {
		return nil, err
	}
	initial, err := r.u32()
	if err != nil {
		return nil, err
	}

	finalCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	final := make(map[State]bool, finalCount)
	for i := uint32(0); i < finalCount; i++ {
		s, err := r.u32()
		if err != nil {
			return nil, err
		}
		final[State(s)] = true
	}

	stateCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	trans := make([]map[vocabulary.TokenID]State, stateCount)
	for i := uint32(0); i < stateCount; i++ {
		s, err := r.u32()
		if err != nil {
			return nil, err
		}
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		row := make(map[vocabulary.TokenID]State, n)
		for j := uint32(0); j < n; j++ {
			tid, err := r.u32()
			if err != nil {
				return nil, err
			}
			target, err := r.u32()
			if err != nil {
				return nil, err
			}
			row[vocabulary.TokenID(tid)] = State(target)
		}
		if int(s) >= len(trans) {
			return nil, fmt.Errorf("index: state id %d out of range", s)
		}
		trans[s] = row
	}

	return &Index{
		initial: State(initial),
		final:   final,
		trans:   trans,
		eos:     vocabulary.TokenID(eos),
	}, nil
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("index: truncated data at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}
