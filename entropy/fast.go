package entropy

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sys/cpu"
)

// RuntimeStatsSource samples runtime.ReadMemStats, a classic cheap, always-
// available fast source (spec.md §4.1): GC pause timings and heap counters
// vary with scheduler and allocator jitter unrelated to caller intent.
type RuntimeStatsSource struct{}

func (RuntimeStatsSource) Name() string { return "runtime-memstats" }

func (RuntimeStatsSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	buf := make([]byte, 24)
	putUint64(buf[0:8], m.LastGC)
	putUint64(buf[8:16], uint64(m.NumGC))
	putUint64(buf[16:24], uint64(m.HeapAlloc)^uint64(m.PauseTotalNs))
	return Sample{Data: buf, Quality: 1}, nil
}

// MonotonicClockSource samples the gap between two back-to-back monotonic
// reads, which varies with unrelated scheduler activity (spec.md §4.1).
type MonotonicClockSource struct{}

func (MonotonicClockSource) Name() string { return "monotonic-clock" }

func (MonotonicClockSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	t0 := time.Now()
	_ = runtime.NumGoroutine()
	t1 := time.Now()

	buf := make([]byte, 16)
	putUint64(buf[0:8], uint64(t0.UnixNano()))
	putUint64(buf[8:16], uint64(t1.Sub(t0)))
	return Sample{Data: buf, Quality: 1}, nil
}

// CPUFeatureSource probes for on-chip RNG instructions (RDRAND/RDSEED) via
// golang.org/x/sys/cpu. Per spec.md §4.1, a source that cannot contribute
// genuine entropy reports zero quality rather than faking a nonzero one;
// detection of the *capability* is not itself entropy.
type CPUFeatureSource struct{}

func (CPUFeatureSource) Name() string { return "cpu-feature-probe" }

func (CPUFeatureSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	buf := []byte{0, 0}
	if cpu.X86.HasRDRAND {
		buf[0] = 1
	}
	if cpu.X86.HasRDSEED {
		buf[1] = 1
	}
	return Sample{Data: buf, Quality: 0}, nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// DefaultFastSources returns the fast sources sampled on every poll
// (spec.md §4.1/§4.3).
func DefaultFastSources() []Source {
	return []Source{
		RuntimeStatsSource{},
		MonotonicClockSource{},
		CPUFeatureSource{},
	}
}
