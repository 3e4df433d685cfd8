// Package nonce implements the deterministic hash-chain nonce generator of
// spec.md §4.4: a cheap freshness source seeded once from the critical CSPRNG,
// used for values like certificate serial numbers that do not need the
// unpredictability guarantees (or the lock contention) of the main pool.
package nonce

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is the spec.md §8 S2 test vector's hash; not used for cryptographic unpredictability (see package doc).
	"hash/crc32"
	"sync"
	"time"
)

// Size is H, the hash output length: SHA-1's 20 bytes (per spec.md §8's
// literal S2 vector). It differs from pool.HashSize, which is SHA-256's 32.
const Size = sha1.Size

// privateSize is the length of the private region seeded from the upstream
// CSPRNG (spec.md §3).
const privateSize = 8

// RandomSource supplies the one-time 8-byte seed for a State's private
// region. It is a narrow view of the owning pool/device so package nonce
// does not need to import package pool or package device.
type RandomSource interface {
	// Extract fills dst with bytes from the critical CSPRNG. It may fail
	// with the upstream source's own error (for the device, errors such as
	// device.ErrInsufficientEntropy); State retries once before
	// falling back to wall-clock time (spec.md §3).
	Extract(dst []byte) error
}

// State is the nonce generator's internal state (spec.md §3): a public
// region of Size bytes and a private region of 8 bytes, an initialised flag,
// and an integrity checksum covering every other field. State has no lock of
// its own and is not safe for concurrent use; Generator below serialises
// access to it with its mutex.
type State struct {
	public      [Size]byte
	private     [privateSize]byte
	initialised bool
	checksum    uint32
}

// checksumOf computes the running integrity checksum over every field of s
// except the checksum itself (spec.md §4.4).
func checksumOf(s *State) uint32 {
	h := crc32.NewIEEE()
	h.Write(s.public[:])
	h.Write(s.private[:])
	if s.initialised {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return h.Sum32()
}

func (s *State) refreshChecksum() {
	s.checksum = checksumOf(s)
}

func (s *State) validate() error {
	if s.checksum == 0 && !s.initialised && s.public == ([Size]byte{}) && s.private == ([privateSize]byte{}) {
		// Freshly zero-valued State (e.g. from a literal) has never had its
		// checksum computed; treat as valid and let the first mutation set it.
		return nil
	}
	if checksumOf(s) != s.checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// Generator drives a State, seeding it from src on first use and serving
// successive hash-chain blocks thereafter (spec.md §4.4).
type Generator struct {
	mu    sync.Mutex
	state State
	src   RandomSource
}

// NewGenerator returns a Generator that will seed itself from src on its
// first Read.
func NewGenerator(src RandomSource) *Generator {
	return &Generator{src: src}
}

// Read fills dst with up to len(dst) nonce bytes. On first use it seeds the
// private region from g.src (one retry, then a wall-clock fallback, per
// spec.md §3), then produces output via the recurrence in spec.md §8
// property 4: b1 = hash(P0 || priv), b2 = hash(b1 || priv), ....
func (g *Generator) Read(dst []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.state.validate(); err != nil {
		return 0, err
	}

	if !g.state.initialised {
		if err := g.seedLocked(); err != nil {
			return 0, err
		}
	}

	produced := 0
	var block [Size]byte
	for produced < len(dst) {
		h := sha1.New() //nolint:gosec // see package doc
		h.Write(g.state.public[:])
		h.Write(g.state.private[:])
		h.Sum(block[:0])
		copy(g.state.public[:], block[:])
		n := copy(dst[produced:], block[:])
		produced += n
	}
	g.state.refreshChecksum()

	return produced, nil
}

// Close zeroises the generator's public and private state, per spec.md
// §4.7's Destroy handler ("Tear down ... D"). The Generator must not be
// used after Close.
func (g *Generator) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.public = [Size]byte{}
	g.state.private = [privateSize]byte{}
	g.state.initialised = false
	g.state.checksum = 0
}

// seedLocked fills the private region from g.src, retrying once, then
// falling back to wall-clock time on repeated failure (spec.md §3). Caller
// must hold g.mu.
func (g *Generator) seedLocked() error {
	var buf [privateSize]byte
	err := g.src.Extract(buf[:])
	if err != nil {
		err = g.src.Extract(buf[:]) // one retry, per spec.md §3
	}
	if err != nil {
		// Wall-clock fallback: not unpredictable, but the nonce generator
		// never claims to be (spec.md §4.4).
		nowNanos := time.Now().UnixNano()
		for i := 0; i < privateSize; i++ {
			buf[i] = byte(nowNanos >> (8 * uint(i%8)))
		}
	}
	copy(g.state.private[:], buf[:])
	g.state.initialised = true
	g.state.refreshChecksum()
	return nil
}
