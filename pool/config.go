// Package pool implements the entropy accumulator and CSPRNG of spec.md §4.2:
// a fixed-size pool mixed with a keyed-hash sponge transform, with quality
// accounting, fork detection, and a sanity gate on extracted output.
package pool

import "crypto/sha256"

// MinPoolSize is the minimum buffer size permitted by spec.md §3
// ("pool_size >= 1024").
const MinPoolSize = 1024

// HashSize is H, the hash output length used for mixing and output blocks
// (spec.md §3, §4.2). SHA-256 is the compile-time-chosen SHA-family hash
// referenced in spec.md §4.2.
const HashSize = sha256.Size

// Config holds the immutable parameters of a Pool, set through Options passed
// to NewPool. The Pool keeps its own copy; there is no accessor that returns
// it.
type Config struct {
	// Size is the number of bytes in the pool buffer. Must be >= MinPoolSize.
	Size int

	// MaxOutputBeforeStir is the number of output bytes produced before the
	// pool is forcibly stirred even absent an explicit request, bounding how
	// long output_counter (spec.md §3) can grow between stirs.
	MaxOutputBeforeStir uint64
}

const defaultMaxOutputBeforeStir = 1 << 20 // 1 MiB

// DefaultConfig returns production-safe defaults: a 1024-byte pool (the
// spec.md §3 minimum) and a 1 MiB output-before-forced-stir ceiling.
func DefaultConfig() Config {
	return Config{
		Size:                MinPoolSize,
		MaxOutputBeforeStir: defaultMaxOutputBeforeStir,
	}
}

// Option configures a Pool at construction time.
type Option func(*Config)

// WithSize sets the pool buffer size. Sizes below MinPoolSize are rejected by
// NewPool.
func WithSize(n int) Option {
	return func(c *Config) { c.Size = n }
}

// WithMaxOutputBeforeStir sets the forced-stir threshold.
func WithMaxOutputBeforeStir(n uint64) Option {
	return func(c *Config) { c.MaxOutputBeforeStir = n }
}
