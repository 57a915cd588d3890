package kernel

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/microkern/internal/logging"
)

// PinIdleLoop pins the calling OS thread to cpu (best-effort) and locks the
// calling goroutine to it for the duration of fn, the same affinity
// discipline the teacher's queue runner applies to its I/O loop
// (runtime.LockOSThread + unix.SchedSetaffinity) before spinning. The idle
// task is the one place in this kernel that genuinely wants to stay put on
// one core rather than migrate: it is the fallback body pickNext returns to
// whenever every run-queue is empty, so it runs far more often, and far more
// briefly, than any other task.
//
// A failed SchedSetaffinity is logged and otherwise ignored, matching the
// teacher's "continue without affinity - not fatal" handling; this kernel
// has no concept of a fatal boot failure over CPU pinning.
func PinIdleLoop(log *logging.Logger, cpu int, fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		if log != nil {
			log.Warnf("idle: failed to pin to cpu %d: %v", cpu, err)
		}
	} else if log != nil {
		log.Debugf("idle: pinned to cpu %d", cpu)
	}

	fn()
}
