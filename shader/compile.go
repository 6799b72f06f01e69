package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/vdiff/internal/cache"
)

// SPIR-V module magic number, first word of every module.
const spirvMagic = 0x07230203

// DefaultCacheLimit is the number of compiled sources kept in memory.
const DefaultCacheLimit = 256

var (
	// ErrEmptySource is returned for blank shader source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrInvalidSPIRV is returned when the compiler output is not a
	// well-formed SPIR-V word stream.
	ErrInvalidSPIRV = errors.New("shader: invalid SPIR-V output")
)

type result struct {
	words []uint32
	err   error
}

var compiled = cache.New[string, result](DefaultCacheLimit)

// Compile compiles WGSL source to SPIR-V words. Results, including
// failures, are memoized by source text. The returned slice is shared and
// must not be modified.
func Compile(source string) ([]uint32, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if r, ok := compiled.Get(source); ok {
		return r.words, r.err
	}

	words, err := compile(source)
	compiled.Set(source, result{words: words, err: err})
	if err != nil {
		slogger().Debug("shader: compile failed", "err", err)
		return nil, err
	}
	slogger().Debug("shader: compiled", "words", len(words))
	return words, nil
}

func compile(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	return toWords(spirvBytes)
}

// toWords converts little-endian SPIR-V bytes to 32-bit words.
func toWords(b []byte) ([]uint32, error) {
	if len(b) < 20 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSPIRV, len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: bad magic %#08x", ErrInvalidSPIRV, words[0])
	}
	return words, nil
}

// CacheStats reports the state of the compile memo.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats returns compile memo statistics.
func Stats() CacheStats {
	s := compiled.Stats()
	return CacheStats{Entries: s.Len, Hits: s.Hits, Misses: s.Misses}
}

// ResetCache drops every memoized compile result.
func ResetCache() {
	compiled.Drain()
}
