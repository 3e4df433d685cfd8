// Package entropy implements the entropy sources of spec.md §4.1: fast
// sources sampled on every poll, slow sources sampled only when quality is
// low, and a last-resort EntropyWorker fallback for platforms without a
// direct kernel RNG device.
package entropy

import "context"

// Sample is one reading from a Source: raw bytes plus the source's quality
// score for them, on the pool's 0..100 quality scale (spec.md §4.1's "each
// source contributes an estimated quality").
type Sample struct {
	Data    []byte
	Quality int
}

// Source is a single entropy source, fast or slow. Sample must not block for
// more than the caller's expected budget for the source's class — slow
// sources are only ever invoked from the poll driver's SlowPoll, never from
// a fast poll (spec.md §4.1, §4.3). Sample must observe ctx cancellation
// promptly: the poll driver's forced-shutdown escalation (spec.md §4.3/§9)
// relies on cooperative sources returning as soon as ctx is done, rather
// than on Go's nonexistent ability to kill a blocked goroutine outright.
type Source interface {
	Name() string
	Sample(ctx context.Context) (Sample, error)
}

// EntropyWorker is the last-resort fallback of spec.md §9's design note. The
// poll driver invokes it only when one is configured (poll.WithWorker) and
// SlowPoll's caller reports low quality; no check is made for whether a
// direct kernel source is available, and device.NewDevice configures no
// worker. Distinct from Source because it may
// shell out to an external utility and carries its own context for
// cancellation, merged with the caller's ctx.
type EntropyWorker interface {
	Gather(ctx context.Context) (Sample, error)
}
