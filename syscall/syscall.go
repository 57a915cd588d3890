// Package syscall implements the kernel's single entry function (spec
// §4.E, §6): a0..a5 plus a syscall id in, a single discriminant word back
// in a0 (0 for Ok, else a kerr.Kind). Result also has room for a second
// word in a1; none of the implemented syscalls sets it.
package syscall

import (
	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/ipc"
	"github.com/ehrlich-b/microkern/kernel"
	"github.com/ehrlich-b/microkern/kernel/kerr"
)

// Id enumerates the recognised syscall ids, by their spec §6 table values.
// 2 and 7 are reserved (Destroy/Exit/Self/Schedule/IrqAcquire/IrqRelease in
// spec prose) and deliberately left unassigned: dispatch rejects them with
// NotPermitted rather than silently aliasing an implemented id.
type Id uint32

const (
	Nop          Id = 1
	IpcSend      Id = 3
	IpcRecv      Id = 3
	IpcCall      Id = 3
	Notify       Id = 4
	SetTimer     Id = 5
	ConsoleWrite Id = 6
	CreateTask   Id = 8
)

// IpcOp distinguishes the three operations multiplexed onto id 3. It is
// passed to Dispatch as its own parameter, outside the a0..a5 words, which
// keep carrying the tid arguments (send/recv/call differ only in argument
// interpretation, not in id).
type IpcOp uint32

const (
	OpSend IpcOp = iota
	OpRecv
	OpCall
)

// MaxConsoleWrite is the length ceiling ConsoleWrite enforces (spec §6:
// "len ≤ 1024").
const MaxConsoleWrite = 1024

// Console is the sink ConsoleWrite drains bytes into.
type Console interface {
	Write(p []byte) (int, error)
}

// Memory lets the dispatcher resolve a ConsoleWrite pointer into bytes.
// boot.FlatMemory (the shared address space Bootstrap wires in) and
// malloc.Heap both implement it.
type Memory interface {
	ReadBytes(ptr, length uint32) ([]byte, error)
}

// Args carries the a0..a5 argument words of one syscall entry, plus the
// IPC message pointer out-of-band (Go has no way to alias raw argument
// words onto a struct pointer the way the reference's asm trampoline does).
type Args struct {
	A0, A1, A2, A3, A4, A5 uint32
	Msg                    *kernel.Message
}

// Result is the two-word return the reference's syscall_2r variants
// produce: Kind in a0, an optional result word in a1.
type Result struct {
	Kind  kerr.Kind
	Value uint32
}

// Dispatcher binds the syscall table to one kernel instance.
type Dispatcher struct {
	sched   *kernel.Scheduler
	ipc     *ipc.Engine
	console Console
	mem     Memory

	// entries maps entry_pc to the task body it names. There is no raw
	// code address a hosted build could jump to, so pc is a caller-chosen
	// symbolic id (e.g. the linker symbols §6's boot layout names:
	// init_task, malloc_task, console_task, print1_task) registered via
	// RegisterEntry before any task issues CreateTask against it.
	entries map[uint32]arch.EntryFunc
}

// New creates a Dispatcher. console and mem may be nil if the caller never
// issues ConsoleWrite.
func New(s *kernel.Scheduler, e *ipc.Engine, console Console, mem Memory) *Dispatcher {
	return &Dispatcher{sched: s, ipc: e, console: console, mem: mem, entries: make(map[uint32]arch.EntryFunc)}
}

// RegisterEntry binds a symbolic entry_pc to the task body CreateTask
// should start when asked to create a task at that pc.
func (d *Dispatcher) RegisterEntry(pc uint32, fn arch.EntryFunc) {
	d.entries[pc] = fn
}

// Dispatch runs one syscall entry: id plus its arguments, per spec §6's
// table. Callers issuing IpcSend/IpcRecv/IpcCall must additionally fill
// Args.Msg and distinguish the op via op, since all three share id 3.
func (d *Dispatcher) Dispatch(id Id, op IpcOp, flags ipc.Flags, args Args) Result {
	switch id {
	case Nop:
		return Result{Kind: kerr.Ok}

	case SetTimer:
		return d.setTimer(args.A0)

	case ConsoleWrite:
		return d.consoleWrite(args.A0, args.A1)

	case IpcSend:
		return d.ipcDispatch(op, flags, args)

	case Notify:
		return d.notify(args.A0, kernel.Notif(args.A1))

	case CreateTask:
		return d.createTask(args.A0, args.A1)

	default:
		return Result{Kind: kerr.NotPermitted}
	}
}

func (d *Dispatcher) setTimer(timeoutMs uint32) Result {
	cur := d.sched.Current()
	cur.Timeout = timeoutMs
	return Result{Kind: kerr.Ok}
}

func (d *Dispatcher) consoleWrite(ptr, length uint32) Result {
	if length > MaxConsoleWrite {
		return Result{Kind: kerr.TooLarge}
	}
	if d.console == nil || d.mem == nil {
		return Result{Kind: kerr.Unavailable}
	}
	data, err := d.mem.ReadBytes(ptr, length)
	if err != nil {
		return Result{Kind: kerr.KindOf(err)}
	}
	if _, err := d.console.Write(data); err != nil {
		return Result{Kind: kerr.Unavailable}
	}
	return Result{Kind: kerr.Ok}
}

func (d *Dispatcher) ipcDispatch(op IpcOp, flags ipc.Flags, args Args) Result {
	switch op {
	case OpSend:
		if err := d.ipc.Send(int(args.A0), *args.Msg, flags); err != nil {
			return Result{Kind: kerr.KindOf(err)}
		}
		return Result{Kind: kerr.Ok}
	case OpRecv:
		if err := d.ipc.Recv(args.A0, args.Msg, flags); err != nil {
			return Result{Kind: kerr.KindOf(err)}
		}
		return Result{Kind: kerr.Ok}
	case OpCall:
		if err := d.ipc.Call(int(args.A0), args.A1, args.Msg, flags); err != nil {
			return Result{Kind: kerr.KindOf(err)}
		}
		return Result{Kind: kerr.Ok}
	default:
		return Result{Kind: kerr.InvalidArg}
	}
}

func (d *Dispatcher) notify(dstTid uint32, bits kernel.Notif) Result {
	if err := d.ipc.Notify(int(dstTid), bits); err != nil {
		return Result{Kind: kerr.KindOf(err)}
	}
	return Result{Kind: kerr.Ok}
}

func (d *Dispatcher) createTask(tid, entryPc uint32) Result {
	if tid >= uint32(d.sched.Config().NumTasks) {
		return Result{Kind: kerr.InvalidArg}
	}
	fn, ok := d.entries[entryPc]
	if !ok {
		return Result{Kind: kerr.NotFound}
	}
	cur := d.sched.Current()
	if err := d.sched.CreateUserTask(int(tid), cur.Priority, fn); err != nil {
		return Result{Kind: kerr.KindOf(err)}
	}
	return Result{Kind: kerr.Ok}
}
