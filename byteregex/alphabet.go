package byteregex

// ByteClasses maps each byte value (0-255) to an equivalence class. Two
// bytes share a class when no state of the compiled automaton ever
// transitions differently on them, which lets the DFA store one transition
// per class instead of one per byte: typically a handful of classes rather
// than 256.
type ByteClasses struct {
	classes [256]byte
}

// Get returns the equivalence class for b.
func (bc *ByteClasses) Get(b byte) byte {
	return bc.classes[b]
}

// AlphabetLen returns the number of distinct equivalence classes.
func (bc *ByteClasses) AlphabetLen() int {
	maxClass := byte(0)
	for _, c := range bc.classes {
		if c > maxClass {
			maxClass = c
		}
	}
	return int(maxClass) + 1
}

// Representatives returns one byte per equivalence class.
func (bc *ByteClasses) Representatives() []byte {
	seen := make([]bool, 256)
	var reps []byte
	for b := 0; b < 256; b++ {
		class := bc.classes[b]
		if !seen[class] {
			seen[class] = true
			reps = append(reps, byte(b))
		}
	}
	return reps
}

// byteClassSet accumulates the byte-range boundaries observed while walking
// an NFA's ByteRange/Sparse states, then resolves them into a ByteClasses.
type byteClassSet struct {
	bits [4]uint64
}

func (s *byteClassSet) setRange(lo, hi byte) {
	if lo > 0 {
		s.setBit(lo - 1)
	}
	s.setBit(hi)
}

func (s *byteClassSet) setBit(b byte) {
	s.bits[b/64] |= 1 << (b % 64)
}

func (s *byteClassSet) getBit(b byte) bool {
	return s.bits[b/64]&(1<<(b%64)) != 0
}

func (s *byteClassSet) byteClasses() ByteClasses {
	var bc ByteClasses
	class := byte(0)
	for b := 0; b < 256; b++ {
		bc.classes[b] = class
		if s.getBit(byte(b)) {
			class++
		}
	}
	return bc
}

// computeByteClasses derives the coarsest ByteClasses consistent with every
// ByteRange and Sparse transition in states.
func computeByteClasses(states []State) ByteClasses {
	var set byteClassSet
	for i := range states {
		s := &states[i]
		switch s.kind {
		case StateByteRange:
			set.setRange(s.lo, s.hi)
		case StateSparse:
			for _, t := range s.transitions {
				set.setRange(t.Lo, t.Hi)
			}
		}
	}
	return set.byteClasses()
}
