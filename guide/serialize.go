package guide

import (
	"encoding/binary"
	"fmt"

	"github.com/quanliu1991/outlines-core/index"
)

const magic uint32 = 0x47554431 // "GUD1"

// Serialize encodes the Guide's own state — current state and rollback
// buffer — alongside a full copy of its Index, so that Deserialize can
// reconstruct a standalone Guide without requiring the caller to supply
// the original Index separately.
func (g *Guide) Serialize() []byte {
	var buf []byte
	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	putU32(magic)
	putU32(uint32(g.current))
	putU32(uint32(g.maxRollback))
	putU32(uint32(len(g.ring)))
	for _, s := range g.ring {
		putU32(uint32(s))
	}
	if g.lastWasEOS {
		putU32(1)
	} else {
		putU32(0)
	}

	idxData := g.idx.Serialize()
	putU32(uint32(len(idxData)))
	buf = append(buf, idxData...)

	return buf
}

// Deserialize reconstructs a Guide from bytes produced by Serialize.
func Deserialize(data []byte) (*Guide, error) {
	r := &byteReader{data: data}

	m, err := r.u32()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("guide: bad magic %#x", m)
	}

	current, err := r.u32()
	if err != nil {
		return nil, err
	}
	maxRollback, err := r.u32()
	if err != nil {
		return nil, err
	}
	ringLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	ring := make([]index.State, ringLen)
	for i := range ring {
		s, err := r.u32()
		if err != nil {
			return nil, err
		}
		ring[i] = index.State(s)
	}
	lastWasEOSWord, err := r.u32()
	if err != nil {
		return nil, err
	}

	idxLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(idxLen) > len(r.data) {
		return nil, fmt.Errorf("guide: truncated index payload")
	}
	idx, err := index.Deserialize(r.data[r.pos : r.pos+int(idxLen)])
	if err != nil {
		return nil, err
	}

	return &Guide{
		idx:         idx,
		current:     index.State(current),
		maxRollback: int(maxRollback),
		ring:        ring,
		lastWasEOS:  lastWasEOSWord != 0,
	}, nil
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("guide: truncated data at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}
