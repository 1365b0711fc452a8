package index

import "github.com/quanliu1991/outlines-core/byteregex"

// Config controls both byte-DFA compilation and index construction limits.
type Config struct {
	// Compiler bounds regex-to-byte-DFA compilation.
	Compiler byteregex.CompilerConfig
}

// DefaultConfig returns sensible construction limits.
func DefaultConfig() Config {
	return Config{Compiler: byteregex.DefaultCompilerConfig()}
}
