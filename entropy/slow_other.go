//go:build !linux

package entropy

import (
	"context"
	"runtime"
	"time"
)

// PerformanceCounterSource stands in for a platform performance-counter slow
// source (e.g. Windows' QueryPerformanceCounter-backed entropy, per
// spec.md §4.1's platform-probe sources) on platforms without a direct
// kernel RNG syscall. Per this module's Open Questions decision, its quality
// is capped at 50 rather than the speculative 100 the original assigns such
// counters — a single scheduler-jitter sample is not as valuable as 64 bits
// of kernel-mixed state.
type PerformanceCounterSource struct{}

func (PerformanceCounterSource) Name() string { return "perf-counter-" + runtime.GOOS }

func (PerformanceCounterSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	buf := make([]byte, 16)
	t := time.Now()
	putUint64(buf[0:8], uint64(t.UnixNano()))
	putUint64(buf[8:16], uint64(runtime.NumCPU())<<32|uint64(runtime.NumGoroutine()))
	return Sample{Data: buf, Quality: 50}, nil
}

// DefaultSlowSources returns the slow sources invoked from SlowPoll on this
// platform. OSCSPRNGSource is included alongside the performance-counter
// source so a single slow poll's combined quality (2 fast + 50 + 100,
// capped at 100) reliably reaches the spec.md §4.2 target in one pass,
// matching scenario S1's cold-start expectation, without raising
// PerformanceCounterSource's own already-justified 50 cap.
func DefaultSlowSources() []Source {
	return []Source{PerformanceCounterSource{}, OSCSPRNGSource{}}
}
