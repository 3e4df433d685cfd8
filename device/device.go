// Package device implements the system device facade of spec.md §4.7: the
// single object that owns the entropy pool, poll driver, nonce generator,
// capability registry and trust cache, dispatching every operation through
// the Message sum type under a serializing, suspendable lock.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/vaultcore/sysdevice/capability"
	"github.com/vaultcore/sysdevice/certio"
	"github.com/vaultcore/sysdevice/nonce"
	"github.com/vaultcore/sysdevice/pool"
	"github.com/vaultcore/sysdevice/poll"
	"github.com/vaultcore/sysdevice/trust"
	"github.com/vaultcore/sysdevice/x/crypto/ctrdrbg"
)

// qualityTarget is the quality level spec.md §4.2/§8 treats as "fully
// seeded"; output requests below this trigger a slow poll before falling
// back to ErrInsufficientEntropy.
const qualityTarget = 100

var maxprocsOnce sync.Once

// Device is the system device facade (component G). Construct with
// NewDevice; the zero value is not usable.
type Device struct {
	lock suspendableMutex

	pool   *pool.Pool
	poller *poll.Driver
	nonce  *nonce.Generator
	caps   *capability.Registry
	trust  *trust.Table

	bulkReaderOnce sync.Once
	bulkReader     ctrdrbg.Interface
	bulkReaderErr  error

	logger  *slog.Logger
	metrics *metrics

	rngCheckFailed atomic.Bool
	destroyed      atomic.Bool
}

// Option configures a Device at construction time.
type Option func(*deviceConfig)

type deviceConfig struct {
	poolOpts   []pool.Option
	pollOpts   []poll.Option
	logger     *slog.Logger
	registerer prometheus.Registerer
	caps       []*capability.Entry
}

// WithPoolOptions passes through functional options to the underlying pool.
func WithPoolOptions(opts ...pool.Option) Option {
	return func(c *deviceConfig) { c.poolOpts = append(c.poolOpts, opts...) }
}

// WithPollOptions passes through functional options to the underlying poll
// driver.
func WithPollOptions(opts ...poll.Option) Option {
	return func(c *deviceConfig) { c.pollOpts = append(c.pollOpts, opts...) }
}

// WithLogger sets the device's structured logger; nil defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *deviceConfig) { c.logger = l }
}

// WithMetrics registers the device's Prometheus collectors against reg.
// Metrics are entirely optional: a Device constructed without this option
// runs unregistered, which is what tests normally want.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *deviceConfig) { c.registerer = reg }
}

// WithCapabilities overrides the default capability set (AES-GCM,
// HMAC-SHA1, Ed25519, ChaCha20-Poly1305). Mainly used by tests that need a
// deliberately-failing capability to exercise self-test pruning.
func WithCapabilities(entries ...*capability.Entry) Option {
	return func(c *deviceConfig) { c.caps = entries }
}

// NewDevice constructs a Device: allocates and seeds the pool, builds the
// poll driver and nonce generator, registers the default capability set and
// runs its self-test, and returns an empty trust cache. Per spec.md §8
// scenario S1, the pool starts at quality 0; the first GetRandom call is
// expected to trigger a slow poll.
func NewDevice(opts ...Option) (*Device, error) {
	// automaxprocs sizes GOMAXPROCS to the host's/cgroup's actual CPU quota
	// once per process, so the poll driver's background workers don't
	// over-subscribe a container with a fractional CPU limit.
	maxprocsOnce.Do(func() {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	})

	cfg := &deviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	p, err := pool.NewPool(cfg.poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("device: pool init: %w", err)
	}

	d := &Device{
		pool:   p,
		poller: poll.NewDriver(append([]poll.Option{poll.WithLogger(cfg.logger)}, cfg.pollOpts...)...),
		caps:   capability.NewRegistry(),
		trust:  trust.NewTable(),
		logger: cfg.logger,
	}
	d.nonce = nonce.NewGenerator(deviceRandomSource{d: d})

	if cfg.registerer != nil {
		d.metrics = newMetrics(cfg.registerer)
	}

	entries := cfg.caps
	if entries == nil {
		entries = []*capability.Entry{
			capability.NewAESGCMCapability(),
			capability.NewHMACSHA1Capability(),
			capability.NewEd25519Capability(),
			capability.NewChaCha20Poly1305Capability(),
		}
	}
	for _, e := range entries {
		d.caps.Register(e)
	}
	if err := d.selfTestLocked(); err != nil && !errors.Is(err, capability.ErrNoCapabilities) {
		d.logger.Warn("device init self-test reported a failure", "error", err)
	}

	return d, nil
}

// Reader returns the device's pooled, high-throughput AES-CTR-DRBG reader
// (package x/crypto/ctrdrbg), seeded and periodically reseeded from this
// device's own GetRandom path. Callers that need many bytes quickly — bulk
// key generation, test-vector fan-out — should use this instead of calling
// GetRandom directly on every byte, since every ctrdrbg.Interface.Read call
// amortizes device-lock contention across a shard rather than taking the
// device's suspend/resume lock per call. It is not used by GetRandom itself,
// which deliberately always goes through pool.Pool.Extract so every byte
// served that way is accounted against the pool's own quality and
// sanity-gate bookkeeping.
//
// Construction is deferred to the first call rather than done in NewDevice,
// since it pulls a full seed's worth of randomness through GetRandom — a
// device with no configured entropy sources (as in tests that exercise
// ErrInsufficientEntropy) must still construct successfully, and only fail
// here, on actual use.
func (d *Device) Reader() (io.Reader, error) {
	d.bulkReaderOnce.Do(func() {
		d.bulkReader, d.bulkReaderErr = ctrdrbg.NewReader(ctrdrbg.WithSource(deviceRandomSource{d: d}))
	})
	return d.bulkReader, d.bulkReaderErr
}

// deviceRandomSource adapts Device.GetRandom to nonce.RandomSource, so the
// nonce generator seeds itself through the same quality-checked,
// slow-poll-capable path every other caller uses, rather than reaching
// into the pool directly.
type deviceRandomSource struct{ d *Device }

func (s deviceRandomSource) Extract(dst []byte) error {
	b, err := s.d.GetRandom(context.Background(), len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Read satisfies io.Reader in addition to nonce.RandomSource's Extract, so
// the same adapter can also seed and reseed the device's ctrdrbg bulk
// reader (see Reader) from the device's own quality-checked output.
func (s deviceRandomSource) Read(dst []byte) (int, error) {
	b, err := s.d.GetRandom(context.Background(), len(dst))
	if err != nil {
		return 0, err
	}
	return copy(dst, b), nil
}

// Dispatch handles msg via an exhaustive type switch, per spec.md §9's
// "sum type of messages ... exhaustive pattern matching" guidance. It
// returns the operation-specific result (nil for operations with no
// return value) or an error.
func (d *Device) Dispatch(ctx context.Context, msg Message) (interface{}, error) {
	if d.destroyed.Load() {
		return nil, ErrShuttingDown
	}
	id := uuid.NewString()
	d.logger.Debug("dispatch", "correlation_id", id, "message", fmt.Sprintf("%T", msg))

	switch m := msg.(type) {
	case GetRandomMsg:
		return d.GetRandom(ctx, m.N)
	case GetNonceMsg:
		return d.GetNonce(m.N)
	case GetTimeMsg:
		return d.GetTime()
	case AddEntropyMsg:
		d.AddEntropy(m.Data, m.Quality)
		return nil, nil
	case SetEntropyQualityMsg:
		d.SetEntropyQuality(m.N)
		return nil, nil
	case TriggerPollMsg:
		return nil, d.TriggerPoll(ctx)
	case SelfTestMsg:
		return nil, d.SelfTest()
	case TrustAddMsg:
		return nil, d.TrustAdd(m.Cert, m.HasContext)
	case TrustFindMsg:
		return d.TrustFind(m.Cert, m.ForIssuer)
	case TrustDeleteMsg:
		return nil, d.TrustDelete(m.Entry)
	case DestroyMsg:
		d.Destroy()
		return nil, nil
	default:
		return nil, fmt.Errorf("device: unhandled message type %T", msg)
	}
}

// GetRandom implements spec.md §4.2/§4.7's get_random(k): if quality is
// already at target, extract immediately; otherwise suspend the device
// lock, run a slow poll, resume, and recheck. AddEntropy calls from other
// goroutines are never blocked by this suspension (spec.md §8 property 8)
// because AddEntropy never takes d.lock at all.
func (d *Device) GetRandom(ctx context.Context, n int) ([]byte, error) {
	if d.destroyed.Load() {
		return nil, ErrShuttingDown
	}
	if d.rngCheckFailed.Load() {
		return nil, ErrRngCheckFailed
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if poll.ForkCheck() {
		d.pool.Reseed(nil)
	}

	d.poller.FastPoll(d.pool)

	if d.pool.Quality() < qualityTarget {
		resume := d.lock.Suspend()
		err := d.runSlowPoll(ctx, d.pool.Quality() < 50)
		resume()
		if err != nil {
			d.logger.Warn("slow poll did not complete", "error", err)
		}
	}

	if d.metrics != nil {
		d.metrics.entropyQuality.Set(float64(d.pool.Quality()))
	}

	if d.pool.Quality() < qualityTarget {
		return nil, ErrInsufficientEntropy
	}

	out := make([]byte, n)
	if err := d.pool.Extract(out); err != nil {
		d.rngCheckFailed.Store(true)
		if d.metrics != nil {
			d.metrics.rngCheckFailTotal.Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrRngCheckFailed, err)
	}
	return out, nil
}

// GetNonce implements spec.md §4.4's get_nonce(k).
func (d *Device) GetNonce(n int) ([]byte, error) {
	if d.destroyed.Load() {
		return nil, ErrShuttingDown
	}
	out := make([]byte, n)
	if _, err := d.nonce.Read(out); err != nil {
		return nil, fmt.Errorf("device: nonce: %w", err)
	}
	return out, nil
}

// GetTime implements spec.md §4.7's GetAttribute(Time): "return
// high-reliability wall-clock value." time.Now() is the high-reliability
// reading on a Go target — it carries a monotonic component alongside the
// wall-clock one precisely so that duration comparisons derived from it are
// immune to NTP adjustments or wall-clock jumps, per the time package's own
// design (see the "Monotonic Clocks" section of the time package docs).
func (d *Device) GetTime() (time.Time, error) {
	if d.destroyed.Load() {
		return time.Time{}, ErrShuttingDown
	}
	return time.Now(), nil
}

// AddEntropy feeds data directly into the pool (spec.md §4.1's explicit
// add_entropy path). It intentionally does not take d.lock: the pool has
// its own internal mutex, so concurrent AddEntropy calls proceed even
// while a slow poll has the device lock suspended (spec.md §8 property 8).
func (d *Device) AddEntropy(data []byte, quality int) {
	if d.destroyed.Load() {
		return
	}
	d.pool.AddEntropy(data, quality)
	if d.metrics != nil {
		d.metrics.entropyQuality.Set(float64(d.pool.Quality()))
	}
}

// SetEntropyQuality implements spec.md §4.7's
// SetAttribute(EntropyQuality, n).
func (d *Device) SetEntropyQuality(n int) {
	if d.destroyed.Load() {
		return
	}
	d.pool.AddQuality(n)
}

// TriggerPoll forces an immediate slow poll regardless of current quality
// (spec.md §4.7 SetAttribute(RandomPoll)).
func (d *Device) TriggerPoll(ctx context.Context) error {
	if d.destroyed.Load() {
		return ErrShuttingDown
	}
	d.lock.Lock()
	resume := d.lock.Suspend()
	err := d.runSlowPoll(ctx, d.pool.Quality() < 50)
	resume()
	d.lock.Unlock()
	return err
}

// runSlowPoll invokes the poll driver's SlowPoll and, when metrics are
// enabled, records its wall-clock duration.
func (d *Device) runSlowPoll(ctx context.Context, lowQuality bool) error {
	if d.metrics == nil {
		return d.poller.SlowPoll(ctx, d.pool, lowQuality)
	}
	start := time.Now()
	err := d.poller.SlowPoll(ctx, d.pool, lowQuality)
	d.metrics.pollDuration.Observe(time.Since(start).Seconds())
	return err
}

// SelfTest runs the capability registry's self-test followed by the fixed
// mechanism KAT battery (spec.md §4.5).
func (d *Device) SelfTest() error {
	if d.destroyed.Load() {
		return ErrShuttingDown
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.selfTestLocked()
}

func (d *Device) selfTestLocked() error {
	err := d.caps.SelfTest()
	if err != nil && d.metrics != nil {
		d.metrics.selfTestFailures.Inc()
	}
	if mechErr := capability.RunMechanismTests(); mechErr != nil {
		if err == nil {
			err = mechErr
		}
	}
	return err
}

// TrustAdd inserts a certificate into the trust cache (spec.md §4.6).
func (d *Device) TrustAdd(cert certio.CertHandle, hasContext bool) error {
	if d.destroyed.Load() {
		return ErrShuttingDown
	}
	err := d.trust.Add(cert, hasContext)
	if d.metrics != nil {
		d.metrics.trustCacheSize.Set(float64(d.trust.Len()))
	}
	return err
}

// TrustFind looks up a trust entry (spec.md §4.6).
func (d *Device) TrustFind(cert certio.CertHandle, forIssuer bool) (*trust.Entry, error) {
	if d.destroyed.Load() {
		return nil, ErrShuttingDown
	}
	return d.trust.Find(cert, forIssuer)
}

// TrustDelete removes a trust entry (spec.md §4.6).
func (d *Device) TrustDelete(e *trust.Entry) error {
	if d.destroyed.Load() {
		return ErrShuttingDown
	}
	err := d.trust.Delete(e)
	if d.metrics != nil {
		d.metrics.trustCacheSize.Set(float64(d.trust.Len()))
	}
	return err
}

// TrustEnumerate visits every trust entry, materialising as needed.
func (d *Device) TrustEnumerate(ctor certio.CertConstructor, visit trust.Visitor) error {
	if d.destroyed.Load() {
		return ErrShuttingDown
	}
	return d.trust.Enumerate(ctor, visit)
}

// Destroy marks the device as shutting down — every subsequent Dispatch, and
// every direct method call that returns an error, fails with ErrShuttingDown
// (spec.md §7); AddEntropy and SetEntropyQuality return without effect — then
// joins the background worker and closes the pool, nonce generator,
// capability registry and trust cache (spec.md §4.7's Destroy handler: "Tear
// down B, D, E, F; join background worker; zeroise state"). The ctrdrbg bulk
// reader returned by Reader is not among them: Destroy neither closes nor
// zeroises it. Destroy is safe to
// call more than once; teardown only runs on the call that wins the flag.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	d.poller.Close() // join background worker
	d.pool.Close()   // B
	d.nonce.Close()  // D
	d.caps.Close()   // E
	d.trust.Close()  // F
}
