package vocabulary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// magic tags the start of a serialized Vocabulary, guarding against
// decoding an unrelated byte stream.
const magic uint32 = 0x564f4331 // "VOC1"

// Serialize encodes the vocabulary into a stable, length-prefixed binary
// format: a magic tag, the EOS id, a bucket count, then for each bucket
// (in deterministic spelling order) a length-prefixed token string
// followed by a length-prefixed list of ids. All integers are little-
// endian, the same convention the kernel-facing bitmask format uses.
func (v *Vocabulary) Serialize() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(v.eos))

	tokens := v.SortedTokens()
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(tokens)))
	for _, token := range tokens {
		ids := v.buckets[token]
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(token)))
		buf.WriteString(token)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(ids)))
		for _, id := range ids {
			_ = binary.Write(&buf, binary.LittleEndian, uint32(id))
		}
	}
	return buf.Bytes()
}

// Deserialize decodes a Vocabulary previously produced by Serialize.
// deserialize(serialize(x)) == x is guaranteed for any Vocabulary.
func Deserialize(data []byte) (*Vocabulary, error) {
	r := bytes.NewReader(data)

	var got uint32
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, fmt.Errorf("vocabulary: read magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("vocabulary: bad magic tag %#x", got)
	}

	var eos uint32
	if err := binary.Read(r, binary.LittleEndian, &eos); err != nil {
		return nil, fmt.Errorf("vocabulary: read eos: %w", err)
	}

	var bucketCount uint32
	if err := binary.Read(r, binary.LittleEndian, &bucketCount); err != nil {
		return nil, fmt.Errorf("vocabulary: read bucket count: %w", err)
	}

	v := &Vocabulary{
		eos:     TokenID(eos),
		buckets: make(map[string][]TokenID, bucketCount),
	}

	for i := uint32(0); i < bucketCount; i++ {
		var tokenLen uint32
		if err := binary.Read(r, binary.LittleEndian, &tokenLen); err != nil {
			return nil, fmt.Errorf("vocabulary: read token length: %w", err)
		}
		tokenBytes := make([]byte, tokenLen)
		if _, err := io.ReadFull(r, tokenBytes); err != nil {
			return nil, fmt.Errorf("vocabulary: read token: %w", err)
		}

		var idCount uint32
		if err := binary.Read(r, binary.LittleEndian, &idCount); err != nil {
			return nil, fmt.Errorf("vocabulary: read id count: %w", err)
		}
		ids := make([]TokenID, idCount)
		for j := range ids {
			var id uint32
			if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
				return nil, fmt.Errorf("vocabulary: read id: %w", err)
			}
			ids[j] = TokenID(id)
		}

		v.buckets[string(tokenBytes)] = ids
	}

	return v, nil
}
