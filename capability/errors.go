package capability

import "errors"

// Sentinel errors for the capability registry, per spec.md §7.
var (
	// ErrMissing names the case of an operation slot that is nil for the
	// given capability (spec.md §7 CapabilityMissing). No function in this
	// package returns it.
	ErrMissing = errors.New("capability: operation not implemented")

	// ErrKatFailed wraps a single capability's self-test failure. The
	// registry's SelfTest aggregates these (spec.md §7 CapabilityKatFailed).
	ErrKatFailed = errors.New("capability: known-answer test failed")

	// ErrNoCapabilities is returned by SelfTest when not a single registered
	// capability passed its self-test (spec.md §4.5).
	ErrNoCapabilities = errors.New("capability: no capabilities passed self-test")

	// ErrMechanismKatFailed is returned by RunMechanismTests on the first
	// mismatching known-answer test (spec.md §4.5).
	ErrMechanismKatFailed = errors.New("capability: mechanism known-answer test failed")
)
