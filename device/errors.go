package device

import "errors"

// Sentinel errors for the system device, per spec.md §7. Errors from lower
// packages (pool, nonce, capability, trust, certio) are wrapped with
// fmt.Errorf("...: %w", err) rather than re-declared here, so errors.Is/As
// still reach the original sentinel.
var (
	// ErrInsufficientEntropy is returned when output was requested, quality
	// remained below 100 after a slow poll, and the device gave up rather
	// than returning weak output.
	ErrInsufficientEntropy = errors.New("device: insufficient entropy after slow poll")

	// ErrRngCheckFailed mirrors pool.ErrRngCheckFailed at the device level;
	// once observed it is latched (see Device.rngCheckFailed) and every
	// subsequent randomness request fails immediately with this error.
	ErrRngCheckFailed = errors.New("device: rng sanity check failed")

	// ErrShuttingDown is returned by any message dispatched after Destroy
	// has been called.
	ErrShuttingDown = errors.New("device: shutting down")
)
