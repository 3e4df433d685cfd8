package trust

import "errors"

// Sentinel errors for the trust cache, per spec.md §7.
var (
	// ErrDuplicate is returned when inserting a certificate whose
	// (checksum, hash) pair already exists in the table (spec.md §4.6).
	ErrDuplicate = errors.New("trust: duplicate entry")

	// ErrAlreadyPresent is returned by AddChain only when *no* element of the
	// chain was newly inserted (spec.md §4.6).
	ErrAlreadyPresent = errors.New("trust: no new entries in chain")

	// ErrNotFound is returned when Delete is called for an entry not present
	// in the table.
	ErrNotFound = errors.New("trust: entry not found")

	// ErrAlreadyInited mirrors spec.md §7's TrustAlreadyInited.
	ErrAlreadyInited = errors.New("trust: already initialised")
)
