// Package stats tracks scheduler/IPC telemetry with atomic counters,
// mirroring the teacher's Metrics struct: a plain collection of atomics
// updated directly on every hot-path event, readable as a point-in-time
// Snapshot without blocking the scheduler or IPC engine.
package stats

import "sync/atomic"

// Counters holds the kernel's own running totals. Every field is safe for
// concurrent use; the scheduler updates them from whichever goroutine is
// "current" at the time without additional locking.
type Counters struct {
	ContextSwitches  atomic.Uint64
	TimerTicks       atomic.Uint64
	Rendezvous       atomic.Uint64 // completed ipc_send/ipc_recv pairings
	NotificationsSent atomic.Uint64
	Aborted          atomic.Uint64
	WouldBlock       atomic.Uint64
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// Snapshot is a point-in-time copy of Counters, safe to pass by value.
type Snapshot struct {
	ContextSwitches   uint64
	TimerTicks        uint64
	Rendezvous        uint64
	NotificationsSent uint64
	Aborted           uint64
	WouldBlock        uint64
}

// Snapshot reads every counter. Individual fields may be inconsistent with
// one another under concurrent updates; this is diagnostic data, not a
// synchronization point.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		ContextSwitches:   c.ContextSwitches.Load(),
		TimerTicks:        c.TimerTicks.Load(),
		Rendezvous:        c.Rendezvous.Load(),
		NotificationsSent: c.NotificationsSent.Load(),
		Aborted:           c.Aborted.Load(),
		WouldBlock:        c.WouldBlock.Load(),
	}
}
