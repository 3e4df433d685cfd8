// Package capability implements the capability registry and self-test
// dispatcher of spec.md §4.5: a list of named cryptographic capabilities,
// each exposing an operation vtable and a self-test, enumerated and pruned
// by algorithm self-test, followed by a fixed battery of mechanism KATs.
//
// Concrete cipher/hash/PKC implementations are external collaborators per
// spec.md §1 ("the core only registers and tests them through a capability
// trait") — the capabilities registered by this package's own kat.go use
// stdlib and golang.org/x/crypto primitives purely as self-test fixtures,
// not as a general-purpose crypto provider.
package capability

import (
	"fmt"
	"sync"
)

// AlgoID identifies a registered capability.
type AlgoID int

// VTable holds a capability's operation entry points. Unused operations are
// left nil. The package has no dispatcher: callers invoke a slot directly,
// and nothing here checks a slot for nil before it is called.
type VTable struct {
	Init    func() error
	LoadKey func(key []byte) error
	Encrypt func(dst, src []byte) error
	Decrypt func(dst, src []byte) error
	Hash    func(data []byte) []byte
	Sign    func(data []byte) ([]byte, error)
	Verify  func(data, sig []byte) error
}

// Entry is a single registered capability (spec.md §3's "Capability entry").
type Entry struct {
	ID       AlgoID
	Name     string
	VTable   VTable
	SelfTest func() error
}

// Registry is the capability list owned by the device (component E). It is
// built once at device init from a table of capability constructors and
// mutated only by SelfTest pruning thereafter (spec.md §4.5); readers during
// normal operation see a stable snapshot via List.
type Registry struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a capability to the registry. Registration is only
// expected at device init, before any self-test has run.
func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// List returns a stable snapshot of the currently registered capabilities.
func (r *Registry) List() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Close unlinks every registered capability, per spec.md §4.7's Destroy
// handler ("Tear down ... E"). Capability entries hold only vtable function
// pointers and self-test closures, not key material, so there is nothing to
// zeroise; dropping the slice lets the garbage collector reclaim them.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Find returns the capability with the given AlgoID, or nil.
func (r *Registry) Find(id AlgoID) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// SelfTest runs every registered capability's self-test (spec.md §4.5). Any
// capability whose self-test fails is unlinked from the registry; the
// overall result is the *first* failure encountered, but every capability is
// tested regardless. If no capability ever passed, ErrNoCapabilities is
// returned instead.
func (r *Registry) SelfTest() error {
	r.mu.Lock()
	snapshot := make([]*Entry, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	var firstErr error
	passed := 0
	var survivors []*Entry
	for _, e := range snapshot {
		if err := runSelfTest(e); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("capability %s: %w: %v", e.Name, ErrKatFailed, err)
			}
			continue
		}
		passed++
		survivors = append(survivors, e)
	}

	r.mu.Lock()
	r.entries = survivors
	r.mu.Unlock()

	if passed == 0 {
		return ErrNoCapabilities
	}
	return firstErr
}

func runSelfTest(e *Entry) error {
	if e.SelfTest == nil {
		return nil
	}
	return e.SelfTest()
}
