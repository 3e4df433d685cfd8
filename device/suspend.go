package device

import "sync"

// suspendableMutex is the device's serializing lock of spec.md §5: it
// guards message dispatch the way a regular mutex would, and a caller that
// is about to do long work (invoking the slow poll) can Suspend it,
// releasing the underlying mutex until the returned resume closure
// re-acquires it. While suspended the lock is simply free: any other
// caller's Lock can take it, and the lock keeps no record of the suspended
// caller (no ownership and no reference count).
type suspendableMutex struct {
	mu sync.Mutex
}

func (s *suspendableMutex) Lock()   { s.mu.Lock() }
func (s *suspendableMutex) Unlock() { s.mu.Unlock() }

// Suspend releases the lock and returns a resume function that re-acquires
// it. Must be called with the lock held; the lock is not held between the
// Suspend call and the resume call.
func (s *suspendableMutex) Suspend() (resume func()) {
	s.mu.Unlock()
	return func() { s.mu.Lock() }
}
