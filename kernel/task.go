package kernel

import (
	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/internal/klist"
)

// Task is one slot in the fixed task table, addressed by Tid. Fields mirror
// spec §3 directly; RunqLink and SenderLink are distinct link tags so a task
// can be on a run-queue and (as a blocked sender elsewhere) a sender queue
// without the two lists knowing about each other — see internal/klist.
type Task struct {
	Tid      int
	TaskType TaskType
	State    State
	Priority int

	// Quantum is signed: it is allowed to go negative for one tick before
	// the scheduler notices, matching handle_timer_irq's `< 0` test.
	Quantum int32
	Timeout uint32

	PendingNotifications Notif
	Message              Message

	// AwaitedSrc is the tid this task is currently willing to receive from.
	// AnySrc and DenySrc are the sentinel values; any other value pins the
	// rendezvous to one sender (see resume_sender / ipc.Engine.resumeSender).
	AwaitedSrc uint32

	RunqLink   klist.Link
	SenderLink klist.Link

	// StackSP is the saved stack pointer an arch.Switcher restores into on
	// a context switch into this task; opaque to everything except the
	// Switcher implementation.
	StackSP arch.StackPointer
}
