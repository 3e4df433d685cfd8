package nonce

import "errors"

// ErrChecksumMismatch is returned when a State's integrity checksum does not
// match its fields. spec.md §4.4 calls this "a fatal internal error" — the
// caller (the owning device) should treat it as unrecoverable for that State.
var ErrChecksumMismatch = errors.New("nonce: checksum mismatch")

// ErrSeedFailed names the case where the 8-byte private-region seed could not
// be obtained from the upstream random source. Seeding always falls back to
// wall-clock time after the one retry spec.md §3 allows, so no function in
// this package returns it.
var ErrSeedFailed = errors.New("nonce: failed to seed private region")
