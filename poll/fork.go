package poll

import "sync/atomic"

// forkFlag is a consume-on-read fork-detection primitive, generalizing
// original_source's unix.c checkForked for a Go program that rarely forks
// without exec: callers that do spawn via fork(2) (e.g. a pre-fork
// net/http server wrapper) call NotifyForked explicitly instead of relying
// on a pthread_atfork hook (spec.md §4.3, §9).
type forkFlag struct {
	flag atomic.Bool
}

// NotifyForked marks that a fork has occurred since the last check. The
// device's GetRandom consults this (via ForkCheck) before each output and
// reseeds the pool when it is set (spec.md §4.3); SlowPoll does not consult
// it.
func (f *forkFlag) NotifyForked() {
	f.flag.Store(true)
}

// Check reports whether a fork was notified since the last Check call,
// clearing the flag (consume-on-read).
func (f *forkFlag) Check() bool {
	return f.flag.Swap(false)
}

var globalForkFlag forkFlag

// NotifyForked marks that a fork has occurred since the last ForkCheck,
// process-wide.
func NotifyForked() {
	globalForkFlag.NotifyForked()
}

// ForkCheck reports whether a fork was notified since the last ForkCheck
// call, clearing the flag.
func ForkCheck() bool {
	return globalForkFlag.Check()
}
