package byteregex

import (
	"fmt"
	"regexp/syntax"
)

// CompilerConfig configures how a pattern is compiled into a byte NFA.
type CompilerConfig struct {
	// Config bounds the recursion depth and state counts allowed during
	// compilation.
	Config Config
}

// DefaultCompilerConfig returns sensible compilation limits.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{Config: DefaultConfig()}
}

// compiler walks a regexp/syntax.Regexp AST and emits a Thompson NFA over
// bytes. Only the constructs compatible with a full-string-match vocabulary
// index are supported: anchors are no-ops (the Index always represents a
// complete match), word boundaries are rejected, and capture groups are
// unwrapped to their inner pattern since the Index has no notion of submatch.
type compiler struct {
	cfg   CompilerConfig
	b     *nfaBuilder
	depth int
}

// NewCompiler creates a Compiler with the given configuration.
func NewCompiler(cfg CompilerConfig) *compiler {
	if cfg.Config == (Config{}) {
		cfg.Config = DefaultConfig()
	}
	return &compiler{cfg: cfg, b: newNFABuilder()}
}

// Compile parses pattern and compiles it into a Thompson NFA over bytes.
func (c *compiler) Compile(pattern string) (*NFA, error) {
	if err := c.cfg.Config.Validate(); err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: fmt.Errorf("%w: %v", ErrUnsupportedRegex, err)}
	}
	re = re.Simplify()

	c.b = newNFABuilder()
	c.depth = 0

	start, end, err := c.compileRegexp(re)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	matchID := c.b.addMatch()
	c.patchEnd(end, matchID)
	c.b.start = start

	return newNFA(c.b.states, c.b.start), nil
}

// patchEnd connects a dangling fragment end to target, going through a join
// epsilon state when end is a Split (which has two dangling arms, not one).
func (c *compiler) patchEnd(end, target StateID) {
	switch c.b.states[end].kind {
	case StateSplit:
		left, right := c.b.states[end].left, c.b.states[end].right
		if left == InvalidState {
			c.b.patchSplit(end, target, right)
		}
		if right == InvalidState {
			c.b.patchSplit(end, left, target)
		}
	default:
		c.b.patch(end, target)
	}
}

// compileRegexp recursively compiles a syntax.Regexp node into a dangling
// NFA fragment: (start, end) where end still needs to be patched to
// continue the automaton.
func (c *compiler) compileRegexp(re *syntax.Regexp) (start, end StateID, err error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.cfg.Config.MaxRecursionDepth {
		return InvalidState, InvalidState, ErrTooComplex
	}
	if len(c.b.states) > c.cfg.Config.MaxNFAStates {
		return InvalidState, InvalidState, ErrTooComplex
	}

	switch re.Op {
	case syntax.OpLiteral:
		return c.compileLiteral(re)
	case syntax.OpCharClass:
		return c.compileCharClass(re.Rune)
	case syntax.OpAnyChar:
		return c.compileAnyChar(true)
	case syntax.OpAnyCharNotNL:
		return c.compileAnyChar(false)
	case syntax.OpConcat:
		return c.compileConcat(re.Sub)
	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub)
	case syntax.OpStar:
		return c.compileStar(re.Sub[0])
	case syntax.OpPlus:
		return c.compilePlus(re.Sub[0])
	case syntax.OpQuest:
		return c.compileQuest(re.Sub[0])
	case syntax.OpRepeat:
		return c.compileRepeat(re.Sub[0], re.Min, re.Max)
	case syntax.OpCapture:
		// The Index has no notion of submatches: only the inner pattern
		// matters, so capture groups are unwrapped rather than tracked.
		return c.compileRegexp(re.Sub[0])
	case syntax.OpBeginText, syntax.OpEndText, syntax.OpBeginLine, syntax.OpEndLine:
		// Index compilation is always full-string-match, so anchors are
		// trivially satisfied: compile to an empty fragment.
		return c.compileEmptyMatch()
	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return InvalidState, InvalidState, ErrUnsupportedRegex
	case syntax.OpEmptyMatch:
		return c.compileEmptyMatch()
	default:
		return InvalidState, InvalidState, fmt.Errorf("%w: %v", ErrUnsupportedRegex, re.Op)
	}
}

// compileEmptyMatch compiles the zero-width always-succeeding fragment.
func (c *compiler) compileEmptyMatch() (start, end StateID, err error) {
	id := c.b.addEpsilon(InvalidState)
	return id, id, nil
}

// compileLiteral compiles a literal rune sequence by chaining UTF-8 byte
// ranges, one singleton range per byte.
func (c *compiler) compileLiteral(re *syntax.Regexp) (start, end StateID, err error) {
	if len(re.Rune) == 0 {
		return c.compileEmptyMatch()
	}

	foldCase := re.Flags&syntax.FoldCase != 0

	var first, prev StateID = InvalidState, InvalidState
	for _, r := range re.Rune {
		var s, e StateID
		if foldCase {
			s, e = c.compileFoldedRune(r)
		} else {
			s, e = c.compileSingleRune(r)
		}
		if first == InvalidState {
			first = s
		} else {
			c.patchEnd(prev, s)
		}
		prev = e
	}
	return first, prev, nil
}

// compileSingleRune compiles one rune as a chain of byte-range states.
func (c *compiler) compileSingleRune(r rune) (start, end StateID) {
	var buf [4]byte
	n := encodeRuneUTF8(buf[:], r)

	var first, prev StateID = InvalidState, InvalidState
	for i := 0; i < n; i++ {
		b := buf[i]
		id := c.b.addByteRange(b, b, InvalidState)
		if first == InvalidState {
			first = id
		} else {
			c.b.patch(prev, id)
		}
		prev = id
	}
	return first, prev
}

// compileFoldedRune compiles a case-insensitive ASCII letter as an
// alternation between its two cases, or a single rune for non-letters.
func (c *compiler) compileFoldedRune(r rune) (start, end StateID) {
	if r < 'a' || r > 'z' {
		if r < 'A' || r > 'Z' {
			return c.compileSingleRune(r)
		}
	}
	upper, lower := toUpperASCII(r), toLowerASCII(r)
	if upper == lower {
		return c.compileSingleRune(r)
	}
	upperStart, upperEnd := c.compileSingleRune(upper)
	lowerStart, lowerEnd := c.compileSingleRune(lower)
	join := c.b.addEpsilon(InvalidState)
	c.b.patch(upperEnd, join)
	c.b.patch(lowerEnd, join)
	return c.b.addSplit(upperStart, lowerStart), join
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// compileCharClass compiles a character class, a sequence of [lo,hi] rune
// range pairs, by expanding each range into UTF-8 byte sequences and joining
// every alternative at a shared epsilon state.
func (c *compiler) compileCharClass(ranges []rune) (start, end StateID, err error) {
	if len(ranges) == 0 {
		return c.compileNoMatch()
	}

	join := c.b.addEpsilon(InvalidState)
	var starts []StateID
	for i := 0; i < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		starts = append(starts, c.utf8Range(lo, hi, join)...)
	}
	if len(starts) == 0 {
		return c.compileNoMatch()
	}
	return c.buildSplitChain(starts), join, nil
}

// compileNoMatch compiles a fragment that can never be completed: a dead
// byte-range with an empty range. Used for character classes like [^\x00-\x{10FFFF}].
func (c *compiler) compileNoMatch() (start, end StateID, err error) {
	// A ByteRange with lo > hi never transitions on any byte.
	id := c.b.addByteRange(0x01, 0x00, InvalidState)
	return id, id, nil
}

// compileAnyChar compiles '.'; dotAll selects whether '\n' is included.
func (c *compiler) compileAnyChar(dotAll bool) (start, end StateID, err error) {
	ranges := []rune{0x00, 0x10FFFF}
	if !dotAll {
		ranges = []rune{0x00, 0x09, 0x0B, 0x10FFFF}
	}
	return c.compileCharClass(ranges)
}

// compileConcat chains fragments end-to-end.
func (c *compiler) compileConcat(subs []*syntax.Regexp) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}

	first, prevEnd, err := c.compileRegexp(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for _, sub := range subs[1:] {
		s, e, err := c.compileRegexp(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		c.patchEnd(prevEnd, s)
		prevEnd = e
	}
	return first, prevEnd, nil
}

// compileAlternate joins fragments with a split chain and a shared join.
func (c *compiler) compileAlternate(subs []*syntax.Regexp) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	if len(subs) == 1 {
		return c.compileRegexp(subs[0])
	}

	join := c.b.addEpsilon(InvalidState)
	starts := make([]StateID, 0, len(subs))
	for _, sub := range subs {
		s, e, err := c.compileRegexp(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		c.patchEnd(e, join)
		starts = append(starts, s)
	}
	return c.buildSplitChain(starts), join, nil
}

// compileStar compiles sub* as a Split looping back to itself, greedy order
// (try the body before falling through) since greediness only affects match
// preference, not the set of strings accepted by the DFA.
func (c *compiler) compileStar(sub *syntax.Regexp) (start, end StateID, err error) {
	split := c.b.addSplit(InvalidState, InvalidState)
	bodyStart, bodyEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	c.b.patchSplit(split, bodyStart, InvalidState)
	c.patchEnd(bodyEnd, split)
	return split, split, nil
}

// compilePlus compiles sub+ as one mandatory copy followed by sub*.
func (c *compiler) compilePlus(sub *syntax.Regexp) (start, end StateID, err error) {
	bodyStart, bodyEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	split := c.b.addSplit(InvalidState, InvalidState)
	loopStart, loopEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	c.b.patchSplit(split, loopStart, InvalidState)
	c.patchEnd(loopEnd, split)
	c.patchEnd(bodyEnd, split)
	return bodyStart, split, nil
}

// compileQuest compiles sub? as an optional Split.
func (c *compiler) compileQuest(sub *syntax.Regexp) (start, end StateID, err error) {
	split := c.b.addSplit(InvalidState, InvalidState)
	bodyStart, bodyEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	join := c.b.addEpsilon(InvalidState)
	c.b.patchSplit(split, bodyStart, join)
	c.patchEnd(bodyEnd, join)
	return split, join, nil
}

// compileRepeat compiles sub{min,max} by unrolling min mandatory copies
// followed by (max-min) optional copies, or a trailing sub* when max is
// unbounded (syntax.Regexp represents {min,} with Max == -1).
func (c *compiler) compileRepeat(sub *syntax.Regexp, min, max int) (start, end StateID, err error) {
	if min == 0 && max == -1 {
		return c.compileStar(sub)
	}
	if min == 0 && max == 0 {
		return c.compileEmptyMatch()
	}

	var first, prevEnd StateID = InvalidState, InvalidState
	appendFragment := func(s, e StateID) {
		if first == InvalidState {
			first = s
		} else {
			c.patchEnd(prevEnd, s)
		}
		prevEnd = e
	}

	for i := 0; i < min; i++ {
		s, e, err := c.compileRegexp(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		appendFragment(s, e)
	}

	if max == -1 {
		s, e, err := c.compileStar(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		appendFragment(s, e)
		return first, prevEnd, nil
	}

	for i := min; i < max; i++ {
		s, e, err := c.compileQuest(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		appendFragment(s, e)
	}

	if first == InvalidState {
		return c.compileEmptyMatch()
	}
	return first, prevEnd, nil
}
