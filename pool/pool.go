package pool

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"sync"
)

// poisonByte fills the caller's buffer before output is written, so that any
// early-return failure path (spec.md §4.2's sanity gate) leaves the buffer
// unambiguously invalid rather than silently zero or stale.
const poisonByte = 0xFF

// Pool is the entropy accumulator and CSPRNG described in spec.md §3/§4.2.
// All mutating methods are safe for concurrent use; each acquires an
// internal mutex for the duration of the call. Pool never blocks on I/O or
// invokes the poll driver itself — spec.md §4.2 step 2 ("invoke the poll
// driver for a slow poll") is the owning device's responsibility, since only
// the device can release its lock while the poll runs (spec.md §5). Pool
// only ever needs to answer "is quality sufficient" and "absorb this data".
type Pool struct {
	cfg Config

	mu            sync.Mutex
	buf           []byte
	quality       int
	mixPosition   int
	outputCounter uint64
	ownerPID      int
	lastBlock     []byte // previous output block, for the equality sanity gate
	haveLastBlock bool
}

// NewPool allocates and seeds a Pool. The initial seeding sequence (spec.md
// §4.2 step 1's "re-run the initial seeding sequence") is: allocate a
// zeroed buffer, then hash-mix in the current PID and a fresh batch of OS
// randomness so a pool is never handed to a caller in an all-zero state.
func NewPool(opts ...Option) (*Pool, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Size < MinPoolSize {
		return nil, ErrInvalidPoolSize
	}

	p := &Pool{
		cfg:      cfg,
		buf:      make([]byte, cfg.Size),
		ownerPID: os.Getpid(),
	}
	p.seedLocked()
	return p, nil
}

// seedLocked hash-mixes the current PID and a fresh batch of OS randomness
// into the pool. It does not change quality. Caller must hold p.mu (or own p
// exclusively, as NewPool does).
func (p *Pool) seedLocked() {
	var seed [8 + HashSize]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(os.Getpid()))
	_, _ = rand.Read(seed[8:])
	p.mixLocked(seed[:])
	zeroize(seed[:])
}

// Quality returns the accumulator's current belief about how much
// unpredictable material it holds, 0..=100 (spec.md §3).
func (p *Pool) Quality() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}

// Size returns the configured pool buffer size.
func (p *Pool) Size() int {
	return p.cfg.Size
}

// AddEntropy absorbs data into the pool via the sponge-style mix described
// in spec.md §4.2: data is XORed into the pool at mix_position, the pool is
// passed through the keyed hash, and the digest replaces the leading H bytes.
// quality is the caller's self-declared contribution (spec.md §4.1), clamped
// so the pool's running quality never exceeds 100.
func (p *Pool) AddEntropy(data []byte, quality int) {
	if len(data) == 0 && quality <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixLocked(data)
	p.raiseQualityLocked(quality)
}

// AddQuality advances the pool's quality estimate by n, capped at 100, per
// spec.md §4.7's SetAttribute(EntropyQuality, n) handling. It does not mix
// any data; it is used when a caller independently vouches for entropy
// already delivered via AddEntropy(data, 0).
func (p *Pool) AddQuality(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raiseQualityLocked(n)
}

func (p *Pool) raiseQualityLocked(n int) {
	if n <= 0 {
		return
	}
	p.quality += n
	if p.quality > 100 {
		p.quality = 100
	}
}

// mixLocked XORs data into the pool at mixPosition (wrapping), then stirs
// once. Caller must hold p.mu.
func (p *Pool) mixLocked(data []byte) {
	n := len(p.buf)
	for i := 0; i < len(data); i++ {
		p.buf[p.mixPosition] ^= data[i]
		p.mixPosition++
		if p.mixPosition >= n {
			p.mixPosition = 0
		}
	}
	p.stirLocked()
}

// stirLocked runs one hash round: the full pool is hashed and the digest
// replaces the leading HashSize bytes (spec.md §4.2 "Mixing").
func (p *Pool) stirLocked() {
	sum := sha256.Sum256(p.buf)
	copy(p.buf[:HashSize], sum[:])
}

// Reseed implements spec.md §4.2 step 1's fork-reseed path and §3's fork
// invariant: zero the pool, re-run the initial seeding sequence, and reset
// quality to 0. It is the device's responsibility to call Reseed exactly
// once per detected fork, before any output is produced (spec.md §3).
func (p *Pool) Reseed(freshEntropy []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	zeroize(p.buf)
	p.mixPosition = 0
	p.outputCounter = 0
	p.quality = 0
	p.ownerPID = os.Getpid()
	p.haveLastBlock = false
	p.lastBlock = nil
	p.seedLocked()
	if len(freshEntropy) > 0 {
		p.mixLocked(freshEntropy)
	}
}

// Extract implements spec.md §4.2 steps 3-5: stir, emit H bytes, repeat
// until k bytes are produced, then run the sanity gate on the final block,
// then stir once more so the pool state is not observable from the last
// output. It does not
// check quality or fork status — callers (the device) must do so first per
// spec.md §4.2 steps 1-2, since those steps require suspending the device
// lock to run the poll driver, which Pool must not know about.
//
// The destination buffer is poisoned before any output is written, so a
// failure return always leaves it in an unambiguous, non-reused state.
func (p *Pool) Extract(dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	for i := range dst {
		dst[i] = poisonByte
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	produced := 0
	var block [HashSize]byte
	for produced < len(dst) {
		p.stirLocked()
		copy(block[:], p.buf[:HashSize])
		n := copy(dst[produced:], block[:])
		produced += n
	}
	p.outputCounter += uint64(len(dst))

	// Sanity gate: compare the final produced block to the immediately
	// preceding output block (spec.md §4.2 step labelled "Sanity gate").
	if p.haveLastBlock && bytes.Equal(block[:], p.lastBlock) {
		for i := range dst {
			dst[i] = poisonByte
		}
		return ErrRngCheckFailed
	}
	if p.lastBlock == nil {
		p.lastBlock = make([]byte, HashSize)
	}
	copy(p.lastBlock, block[:])
	p.haveLastBlock = true

	// Stir once more so the emitted bytes cannot be used to predict the next
	// stir's input (spec.md §4.2 step 4).
	p.stirLocked()

	if p.outputCounter >= p.cfg.MaxOutputBeforeStir {
		p.stirLocked()
		p.outputCounter = 0
	}

	return nil
}

// OwnerPID returns the PID snapshotted at the last seed/reseed, used by the
// owning device to detect a fork-produced clone (spec.md §3).
func (p *Pool) OwnerPID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ownerPID
}

// Close zeroises the pool buffer and the sanity gate's last-block cache and
// resets quality to 0, per spec.md §4.7's Destroy handler ("every allocation
// that ever held key material or entropy is zeroised before being freed").
// The Pool must not be used after Close.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	zeroize(p.buf)
	zeroize(p.lastBlock)
	p.quality = 0
	p.mixPosition = 0
	p.outputCounter = 0
	p.haveLastBlock = false
}

// zeroize overwrites buf with zero bytes. Used whenever a buffer that ever
// held pool or key material is about to be dropped or reused for a different
// purpose, per spec.md §9's zeroise-on-drop design note.
func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
