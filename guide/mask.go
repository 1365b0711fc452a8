package guide

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// hasAVX2 gates the wide bitmask-fill path, the same CPU-feature dispatch
// shape the teacher's simd package uses for Memchr: a pure Go fallback is
// always correct, and a wider-stride path is used only when the running
// CPU actually benefits from processing more words per iteration.
var hasAVX2 = cpu.X86.HasAVX2

// BitmaskWords returns the number of 32-bit words needed to cover
// vocabSize token IDs: ceil(vocabSize/32). A gpt2-sized vocabulary
// (50257 IDs) needs 1571 words.
func BitmaskWords(vocabSize int) int {
	return (vocabSize + 31) / 32
}

// WriteMaskInto writes a packed little-endian bitmask of the tokens
// currently allowed by g into the caller-owned buffer at ptr, covering
// token IDs [0, 32*nElements). Bit k of word k/32 (bit index k mod 32,
// LSB-first) is set iff token ID k is allowed. The entire buffer is
// overwritten; pre-existing contents are irrelevant and bits beyond the
// allowed set are explicitly cleared, not left untouched.
//
// This is the single hot call on the generation path, so the contract is
// validated strictly up front rather than left to crash on misuse:
// elementSize must be 4 (32-bit words), nElements must be at least 1, and
// ptr must be non-null and 4-byte aligned.
func (g *Guide) WriteMaskInto(ptr uintptr, nElements int, elementSize int) error {
	if elementSize != 4 {
		return ErrInvalidElementSize
	}
	if nElements < 1 {
		return ErrInvalidBufferSize
	}
	if ptr == 0 {
		return ErrInvalidDataPointer
	}
	if ptr%4 != 0 {
		return ErrInvalidDataPointerAlignment
	}

	words := unsafe.Slice((*uint32)(unsafe.Pointer(ptr)), nElements) //nolint:govet // caller-owned buffer, contract documented above

	clearWords(words)

	maxTokenID := uint32(nElements) * 32
	for _, tid := range g.GetTokens() {
		if uint32(tid) >= maxTokenID {
			continue
		}
		words[tid/32] |= 1 << (uint32(tid) % 32)
	}

	return nil
}

// clearWords zeroes every word in buf. The AVX2-gated path and the
// fallback are behaviorally identical; the branch exists to mirror how
// the teacher's simd package picks a wider stride only when the CPU
// supports it, trading branch overhead for throughput on large buffers.
func clearWords(buf []uint32) {
	if hasAVX2 && len(buf) >= 64 {
		clearWordsWide(buf)
		return
	}
	clearWordsNarrow(buf)
}

func clearWordsNarrow(buf []uint32) {
	for i := range buf {
		buf[i] = 0
	}
}

// clearWordsWide unrolls the clear loop eight words at a time, the stride
// an AVX2 256-bit vector register covers for 32-bit lanes.
func clearWordsWide(buf []uint32) {
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		b := buf[i : i+8 : i+8]
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7] = 0, 0, 0, 0, 0, 0, 0, 0
	}
	for ; i < len(buf); i++ {
		buf[i] = 0
	}
}
