//go:build linux

package entropy

import (
	"context"

	"golang.org/x/sys/unix"
)

// KernelRNGSource reads from the Linux kernel's getrandom(2) syscall, the
// "kernel-provided RNG device... exposed as a file-like source or a syscall"
// of spec.md §4.1. It is a slow source: the poll driver invokes it only from
// SlowPoll, never FastPoll (spec.md §4.3), since getrandom can block before
// the kernel pool is initialized.
type KernelRNGSource struct{}

func (KernelRNGSource) Name() string { return "kernel-getrandom" }

func (KernelRNGSource) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	buf := make([]byte, 32)
	n, err := unix.Getrandom(buf, 0)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Data: buf[:n], Quality: 64}, nil
}

// DefaultSlowSources returns the slow sources invoked from SlowPoll on this
// platform. OSCSPRNGSource is included alongside the kernel syscall source
// so a single slow poll's combined quality (2 fast + 64 + 100, capped at
// 100) reliably reaches the spec.md §4.2 target in one pass, matching
// scenario S1's cold-start expectation.
func DefaultSlowSources() []Source {
	return []Source{KernelRNGSource{}, OSCSPRNGSource{}}
}
