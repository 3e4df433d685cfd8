package pool

import "errors"

// Sentinel errors returned by the entropy accumulator, per spec.md §7.
var (
	// ErrInsufficientEntropy names the case where output is requested,
	// quality is below 100, and a slow poll could not raise it (spec.md §4.2
	// step 2). Pool does not check quality itself and never returns it; the
	// device reports that case with its own device.ErrInsufficientEntropy.
	ErrInsufficientEntropy = errors.New("pool: insufficient entropy")

	// ErrRngCheckFailed is returned when the output sanity gate trips
	// (spec.md §4.2's "sanity gate"). It is fatal: once observed, the owning
	// device latches the failure and refuses further output (spec.md §7).
	ErrRngCheckFailed = errors.New("pool: rng check failed")

	// ErrMemoryExhausted mirrors spec.md §7's MemoryExhausted. No function in
	// this package returns it.
	ErrMemoryExhausted = errors.New("pool: memory exhausted")

	// ErrInvalidPoolSize is returned by NewPool when the configured pool size
	// is smaller than the minimum required by spec.md §3 ("pool_size >= 1024").
	ErrInvalidPoolSize = errors.New("pool: pool size must be at least 1024 bytes")
)
