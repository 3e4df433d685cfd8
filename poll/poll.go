// Package poll implements the poll driver of spec.md §4.3: a fast poll that
// samples cheap, always-available entropy sources synchronously, and a slow
// poll that samples more expensive sources with "at most one in flight"
// semantics, a wall-clock timeout, and forced-shutdown escalation for
// workers that refuse to finish.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vaultcore/sysdevice/entropy"
)

// DefaultSlowPollTimeout is the wall-clock budget for a slow poll before it
// is abandoned (spec.md §4.3, scenario S6).
const DefaultSlowPollTimeout = 30 * time.Second

// shutdownJoinCap bounds how long Close waits for an in-flight slow poll to
// actually return, per spec.md §4.3/§9's forced-shutdown "kill" stage. It is
// a sanity cap, not a cancellation mechanism — a cooperative source that
// respects ctx will already have returned well before this fires.
const shutdownJoinCap = 2 * time.Second

// Sink receives entropy as it is gathered; pool.Pool satisfies this without
// either package importing the other.
type Sink interface {
	AddEntropy(data []byte, quality int)
}

// Driver coordinates fast and slow polling over a set of entropy sources. It
// holds no reference to the device or the pool lock: the caller decides when
// quality is low enough to warrant a slow poll and holds whatever lock
// discipline it needs around the call (spec.md §5 suspend/resume).
type Driver struct {
	fastSources []entropy.Source
	slowSources []entropy.Source
	worker      entropy.EntropyWorker
	timeout     time.Duration
	logger      *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

// Option configures a Driver.
type Option func(*Driver)

// WithFastSources overrides the fast-poll source list (default:
// entropy.DefaultFastSources()).
func WithFastSources(sources []entropy.Source) Option {
	return func(d *Driver) { d.fastSources = sources }
}

// WithSlowSources overrides the slow-poll source list (default:
// entropy.DefaultSlowSources()).
func WithSlowSources(sources []entropy.Source) Option {
	return func(d *Driver) { d.slowSources = sources }
}

// WithWorker sets the last-resort EntropyWorker fallback that SlowPoll runs
// after the slow source list when its caller passes lowQuality (spec.md §9).
// SlowPoll does not re-check quality after the slow sources.
func WithWorker(w entropy.EntropyWorker) Option {
	return func(d *Driver) { d.worker = w }
}

// WithTimeout overrides the slow-poll wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.timeout = d }
}

// WithLogger sets the structured logger; a nil logger defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver returns a Driver ready for fast and slow polling.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		fastSources: entropy.DefaultFastSources(),
		slowSources: entropy.DefaultSlowSources(),
		timeout:     DefaultSlowPollTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// FastPoll samples every fast source once and feeds the results to sink.
// FastPoll never blocks on I/O (spec.md §4.1/§4.3) and is safe to call on
// every device operation.
func (d *Driver) FastPoll(sink Sink) {
	ctx := context.Background()
	for _, src := range d.fastSources {
		s, err := src.Sample(ctx)
		if err != nil {
			d.logger.Debug("fast poll source failed", "source", src.Name(), "error", err)
			continue
		}
		sink.AddEntropy(s.Data, s.Quality)
	}
}

// SlowPoll samples every slow source, collapsing concurrent calls into a
// single in-flight poll via singleflight (spec.md §4.3's "at most one slow
// poll at a time; a second request while one is in flight is a no-op").
// If lowQuality is true and a worker is configured, the EntropyWorker
// fallback runs too. SlowPoll respects ctx and the Driver's configured
// timeout, whichever is shorter, and returns ErrPollTimedOut if neither
// completes in time.
func (d *Driver) SlowPoll(ctx context.Context, sink Sink, lowQuality bool) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type result struct {
		samples []entropy.Sample
		once    *sync.Once
	}

	resCh := d.group.DoChan("slow-poll", func() (interface{}, error) {
		// Add/Done is scoped to this closure rather than to each SlowPoll
		// caller: singleflight runs this function body exactly once per
		// collapsed "flight" no matter how many callers joined it, so the
		// WaitGroup tracks actual in-flight background work, not call count.
		d.wg.Add(1)
		defer d.wg.Done()
		var samples []entropy.Sample
		for _, src := range d.slowSources {
			if ctx.Err() != nil {
				break
			}
			s, err := src.Sample(ctx)
			if err != nil {
				d.logger.Warn("slow poll source failed", "source", src.Name(), "error", err)
				continue
			}
			samples = append(samples, s)
		}
		if lowQuality && d.worker != nil && ctx.Err() == nil {
			s, err := d.worker.Gather(ctx)
			if err != nil {
				d.logger.Warn("entropy worker fallback failed", "error", err)
			} else {
				samples = append(samples, s)
			}
		}
		return result{samples: samples, once: new(sync.Once)}, nil
	})

	select {
	case r := <-resCh:
		res := r.Val.(result)
		// Every caller that joined this flight receives the same result; only
		// the first one to get here feeds the samples to its sink.
		res.once.Do(func() {
			for _, s := range res.samples {
				sink.AddEntropy(s.Data, s.Quality)
			}
		})
		return nil
	case <-ctx.Done():
		d.escalateShutdown(resCh)
		return ErrPollTimedOut
	}
}

// escalateShutdown logs the polite-stop -> yield -> kill escalation of
// spec.md §9 for a slow poll that blew its wall-clock budget, then waits
// (bounded by shutdownJoinCap) for the abandoned call to actually return
// before giving up on it. Every source's Sample/Gather observes the same
// ctx that just expired, so a cooperative source returns almost immediately
// and delivers no further output: pendingCh is read here, off the caller's
// return path, specifically so no later caller can receive this call's
// stale result from the singleflight group. Only a source that ignores ctx
// entirely (a genuinely non-cooperative blocking syscall) can still leave
// the goroutine running past the cap; Go has no way to forcibly kill that.
func (d *Driver) escalateShutdown(pendingCh <-chan singleflight.Result) {
	d.logger.Warn("slow poll exceeded wall-clock budget, escalating shutdown",
		"timeout", d.timeout, "stage", "polite-stop")
	d.logger.Warn("slow poll escalation", "stage", "yield")

	select {
	case <-pendingCh:
		d.logger.Warn("slow poll escalation", "stage", "killed", "detail", "abandoned call returned after cancellation")
	case <-time.After(shutdownJoinCap):
		d.logger.Error("slow poll escalation", "stage", "abandoned", "detail", "call did not observe cancellation within sanity cap")
	}
}

// Close waits, bounded by shutdownJoinCap, for any slow poll currently in
// flight to finish, then returns. It does not itself cancel that work —
// callers that want prompt cancellation should have already passed a
// cancelled/expired ctx into SlowPoll — it only bounds how long a caller
// tearing down the driver (spec.md §4.7's Destroy handler) waits for
// in-flight background work to join.
func (d *Driver) Close() {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownJoinCap):
		d.logger.Error("poll driver shutdown: background work did not join within sanity cap")
	}
}
