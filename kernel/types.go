package kernel

import "fmt"

// TaskType distinguishes the idle task from ordinary user tasks. There is
// exactly one Idle task per kernel instance, created by CreateIdleTask.
type TaskType uint8

const (
	Idle TaskType = iota
	User
)

func (t TaskType) String() string {
	if t == Idle {
		return "idle"
	}
	return "user"
}

// State is a task's scheduling state.
type State uint8

const (
	Unused State = iota
	Runnable
	Blocked
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Runnable:
		return "runnable"
	case Blocked:
		return "blocked"
	default:
		return "invalid"
	}
}

// Notif is a bitset of kernel-originated notification kinds, OR'd together
// in Task.PendingNotifications and in a NOTIFICATIONS message payload.
type Notif uint8

const (
	NotifTimer   Notif = 1 << 0
	NotifIrq     Notif = 1 << 1
	NotifAborted Notif = 1 << 2
	NotifAsync   Notif = 1 << 3
)

// AnySrc and DenySrc are the sentinel values for Task.AwaitedSrc: AnySrc
// means "accept a message from any sender", DenySrc means "accept from
// none" (the state a task is in while it itself is enqueued as a sender).
const (
	AnySrc  uint32 = 0
	DenySrc uint32 = ^uint32(0)
)

// KernelTid is the source tid stamped on kernel-synthesised NOTIFICATIONS
// messages. The idle task's tid doubles as this sentinel: idle never sends
// or receives IPC, so tid 0 is otherwise unused as a message source.
const KernelTid = 0

// Invariant panics with a fixed message if cond is false. Used at points the
// reference treats as a kernel-fatal bug (double-resume, resuming a task
// already on a run-queue) rather than an ordinary *kerr.Error — callers
// never recover from it.
func Invariant(cond bool, msg string) {
	if !cond {
		panic(fmt.Sprintf("kernel invariant violated: %s", msg))
	}
}
