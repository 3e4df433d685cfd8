package poll

import "errors"

// Sentinel errors for the poll driver, per spec.md §7.
var (
	// ErrPollTimedOut is returned by SlowPoll when ctx or the Driver's
	// wall-clock timeout expires before the whole slow poll completes
	// (spec.md §4.3, scenario S6).
	ErrPollTimedOut = errors.New("poll: slow poll timed out")

	// ErrNoSources is returned when a poll is requested but no sources are
	// configured at all.
	ErrNoSources = errors.New("poll: no sources configured")
)
