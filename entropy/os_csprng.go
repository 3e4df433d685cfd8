package entropy

import (
	"context"
	"crypto/rand"
)

// OSCSPRNGSource draws directly from the operating system's own CSPRNG
// (crypto/rand, backed by getrandom(2)/CryptGenRandom/arc4random depending
// on platform). It is a slow source, not a fast one: spec.md §4.1 treats the
// platform's already-mixed, already-seeded CSPRNG as the single highest-
// confidence source available to a poll, worth the full quality budget
// rather than a bounded contribution like the jitter-based sources above.
// Every other source in DefaultFastSources/DefaultSlowSources measures
// something merely correlated with unpredictability (scheduler timing, a
// syscall's own partial output); this one asks the kernel's RNG directly,
// so it is the one source allowed to single-handedly satisfy the quality
// target in one slow poll (spec.md §8 scenario S1).
type OSCSPRNGSource struct{}

func (OSCSPRNGSource) Name() string { return "os-csprng" }

func (OSCSPRNGSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Sample{}, err
	}
	return Sample{Data: buf, Quality: 100}, nil
}
