package arch

import "sync"

// SwitchRecord is one recorded Switch call, kept by FakeSwitcher for test
// assertions in the spirit of the teacher's MockBackend call-counters.
type SwitchRecord struct {
	From, To StackPointer
}

// FakeSwitcher is the hosted Switcher used by kernel tests and by the
// in-process scheduler when there is no real trap boundary underneath it.
// Each StackPointer it hands out is backed by a channel; switching into a
// context means handing its channel a token and waiting to be handed one
// back on the caller's own channel, the same baton-passing shape the
// toy G/M/P scheduler examples use to simulate cooperative handoff without
// real stack-pointer manipulation. The zero value is not ready to use; call
// NewFakeSwitcher.
type FakeSwitcher struct {
	mu       sync.Mutex
	next     StackPointer
	resume   map[StackPointer]chan struct{}
	tids     map[StackPointer]int
	switches []SwitchRecord
}

// NewFakeSwitcher creates an empty FakeSwitcher.
func NewFakeSwitcher() *FakeSwitcher {
	return &FakeSwitcher{
		resume: make(map[StackPointer]chan struct{}),
		tids:   make(map[StackPointer]int),
	}
}

func (f *FakeSwitcher) alloc(tid int) StackPointer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	sp := f.next
	f.resume[sp] = make(chan struct{})
	f.tids[sp] = tid
	return sp
}

func (f *FakeSwitcher) channel(sp StackPointer) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.resume[sp]
	if !ok {
		panic("arch: switch into unregistered stack pointer")
	}
	return ch
}

// NewStack spawns a goroutine parked waiting for its first dispatch, then
// running entry once dispatched. entry must not return if the task is meant
// to keep receiving further context switches (a real task loops forever on
// ipc_recv; returning from entry here just lets the goroutine exit, mirroring
// a task that would otherwise spin in an empty loop).
func (f *FakeSwitcher) NewStack(tid int, entry EntryFunc) StackPointer {
	sp := f.alloc(tid)
	ch := f.channel(sp)
	go func() {
		<-ch
		entry()
	}()
	return sp
}

// Enter registers the calling goroutine itself (rather than a spawned one)
// as a switchable context. Boot code uses this exactly once, to hand off
// from the goroutine bootstrapping the kernel into the first scheduled
// task; the boot goroutine then blocks inside the resulting Switch call
// until something switches back into it.
func (f *FakeSwitcher) Enter() StackPointer {
	return f.alloc(-1)
}

// Switch implements Switcher.
func (f *FakeSwitcher) Switch(prev *StackPointer, next StackPointer) {
	f.mu.Lock()
	f.switches = append(f.switches, SwitchRecord{From: *prev, To: next})
	f.mu.Unlock()

	f.channel(next) <- struct{}{}
	<-f.channel(*prev)
}

// Idle parks the calling context (tid's own stack pointer, passed as self)
// until switched back into, without itself issuing a switch. Used by the
// idle task's trampoline body between dispatches in tests that want to
// observe idle actually yielding the processor rather than busy-spinning.
func (f *FakeSwitcher) Idle(self StackPointer) {
	<-f.channel(self)
}

// Switches returns a snapshot of every Switch call recorded so far.
func (f *FakeSwitcher) Switches() []SwitchRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SwitchRecord, len(f.switches))
	copy(out, f.switches)
	return out
}

// TidOf returns the tid NewStack was called with for sp, or -1 for a
// context registered via Enter.
func (f *FakeSwitcher) TidOf(sp StackPointer) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tids[sp]
}

var _ Switcher = (*FakeSwitcher)(nil)
var _ Idler = (*FakeSwitcher)(nil)
