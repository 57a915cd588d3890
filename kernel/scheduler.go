package kernel

import (
	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/internal/klist"
	"github.com/ehrlich-b/microkern/internal/logging"
	"github.com/ehrlich-b/microkern/kernel/kerr"
	"github.com/ehrlich-b/microkern/kernel/stats"
)

// Scheduler owns the fixed task table and the priority run-queues over it.
// It is the Scheduler referred to throughout spec §4.C and is also where
// §4.D's rendezvous primitives (ipc package) reach in to mutate task state
// and the sender queues, since both own the same arena.
type Scheduler struct {
	cfg Config

	tasks        []Task
	runQueues    []*klist.DList
	senderQueues []*klist.DList

	currentTid int

	arch  arch.Switcher
	log   *logging.Logger
	Stats *stats.Counters
}

// NewScheduler allocates a task table of cfg.NumTasks slots, all Unused, and
// one run-queue per priority level. No task is current until CreateIdleTask
// runs.
func NewScheduler(cfg Config, sw arch.Switcher, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	s := &Scheduler{
		cfg:        cfg,
		tasks:      make([]Task, cfg.NumTasks),
		arch:       sw,
		log:        log,
		Stats:      stats.New(),
		currentTid: -1,
	}
	for i := range s.tasks {
		s.tasks[i].Tid = i
		s.tasks[i].AwaitedSrc = AnySrc
	}

	s.runQueues = make([]*klist.DList, cfg.NumPriorities)
	for p := range s.runQueues {
		s.runQueues[p] = klist.New(func(idx int32) *klist.Link { return &s.tasks[idx].RunqLink })
	}

	s.senderQueues = make([]*klist.DList, cfg.NumTasks)
	for t := range s.senderQueues {
		s.senderQueues[t] = klist.New(func(idx int32) *klist.Link { return &s.tasks[idx].SenderLink })
	}

	return s
}

// Config returns the sizing this scheduler was built with.
func (s *Scheduler) Config() Config { return s.cfg }

// TaskByTid returns the task at tid, or InvalidTask if tid is out of range.
// It does not check the task's State; an Unused slot is a valid return.
func (s *Scheduler) TaskByTid(tid int) (*Task, error) {
	if tid < 0 || tid >= len(s.tasks) {
		return nil, kerr.Task("task_by_tid", tid, kerr.InvalidTask, "tid out of range")
	}
	return &s.tasks[tid], nil
}

// Current returns the currently-executing task, or nil before boot has
// created the idle task.
func (s *Scheduler) Current() *Task {
	if s.currentTid < 0 {
		return nil
	}
	return &s.tasks[s.currentTid]
}

// SenderQueue returns the sender-queue for the task at tid (the queue of
// tasks blocked trying to send to it). Exported for the ipc package, which
// owns resume_sender / send's blocking path.
func (s *Scheduler) SenderQueue(tid int) *klist.DList {
	return s.senderQueues[tid]
}

// RunQueue returns the run-queue for a priority level, for tests and
// diagnostics.
func (s *Scheduler) RunQueue(priority int) *klist.DList {
	return s.runQueues[priority]
}

// createTask is the shared body of CreateUserTask / CreateIdleTask.
func (s *Scheduler) createTask(tid int, taskType TaskType, priority int, entry arch.EntryFunc) (*Task, error) {
	t, err := s.TaskByTid(tid)
	if err != nil {
		return nil, err
	}
	if t.State != Unused {
		return nil, kerr.Task("create_task", tid, kerr.AlreadyExists, "slot already initialised")
	}
	t.TaskType = taskType
	t.Priority = priority
	t.Quantum = s.cfg.TimeSlice
	t.Timeout = 0
	t.PendingNotifications = 0
	t.Message = Message{}
	t.AwaitedSrc = AnySrc
	t.StackSP = s.arch.NewStack(tid, entry)
	return t, nil
}

// CreateUserTask initialises tid's slot (which must be Unused), prepares its
// initial stack so a future switch into it begins running entry, and
// transitions it to Runnable on its priority's run-queue.
func (s *Scheduler) CreateUserTask(tid int, priority int, entry arch.EntryFunc) error {
	if priority < 0 || priority >= s.cfg.NumPriorities {
		return kerr.Task("create_user_task", tid, kerr.InvalidArg, "priority out of range")
	}
	t, err := s.createTask(tid, User, priority, entry)
	if err != nil {
		return err
	}
	t.State = Blocked // initialised, not yet on a run-queue
	s.Resume(t)
	return nil
}

// CreateIdleTask initialises the idle task and makes it the initial
// current task. Unlike CreateUserTask it is never placed on a run-queue:
// the scheduler falls back to it only when every run-queue is empty.
func (s *Scheduler) CreateIdleTask(entry arch.EntryFunc) error {
	t, err := s.createTask(KernelTid, Idle, s.cfg.NumPriorities-1, entry)
	if err != nil {
		return err
	}
	t.State = Runnable
	s.currentTid = t.Tid
	return nil
}

// Start hands control from the calling (booting) goroutine to whichever
// task the scheduler picks first: idle is the initial current by
// construction, but Start runs a real scheduling pass so any task created
// runnable before Start is called (init, the allocator, console) pre-empts
// idle immediately, same as it would on every later pass. It returns only
// if something ever switches back into the boot context, which does not
// happen in ordinary operation; callers generally do not expect Start to
// return.
func (s *Scheduler) Start() {
	boot := s.arch.Enter()
	Invariant(s.Current() != nil, "Start called before CreateIdleTask")
	next := s.pickNext()
	next.Quantum = s.cfg.TimeSlice
	s.currentTid = next.Tid
	s.arch.Switch(&boot, next.StackSP)
}

// Block marks t Blocked. Per spec §4.C, block does not enqueue t anywhere;
// callers are responsible for placing it on a sender queue or leaving it
// unreachable (awaiting a message as a receiver).
func (s *Scheduler) Block(t *Task) {
	Invariant(t.State != Unused, "block on an unused task")
	t.State = Blocked
}

// Resume marks t Runnable and enqueues it at the tail of its priority's
// run-queue.
func (s *Scheduler) Resume(t *Task) {
	Invariant(t.State != Unused, "resume on an unused task")
	Invariant(t.State != Runnable, "resume of an already-runnable task")
	t.State = Runnable
	s.runQueues[t.Priority].PushBack(int32(t.Tid))
}

// pickNext implements scheduler(current) -> next: if current is not Idle
// and is still Runnable (it was not just blocked), it is re-enqueued at the
// tail of its own priority queue. Then the first non-empty run-queue,
// scanned from priority 0, yields next from its head. If every queue is
// empty, the idle task runs.
func (s *Scheduler) pickNext() *Task {
	cur := s.Current()
	if cur != nil && cur.TaskType != Idle && cur.State == Runnable {
		s.runQueues[cur.Priority].PushBack(int32(cur.Tid))
	}
	for p := 0; p < s.cfg.NumPriorities; p++ {
		if idx, ok := s.runQueues[p].PopFront(); ok {
			return &s.tasks[idx]
		}
	}
	return &s.tasks[KernelTid]
}

// TaskSwitch invokes pickNext and, if it chose a different task than the
// one currently running, refills its quantum and performs the actual
// architecture-level context switch.
func (s *Scheduler) TaskSwitch() {
	prev := s.Current()
	next := s.pickNext()
	if prev != nil && next.Tid == prev.Tid {
		return
	}
	next.Quantum = s.cfg.TimeSlice
	s.currentTid = next.Tid
	s.Stats.ContextSwitches.Add(1)
	if prev == nil {
		return
	}
	s.arch.Switch(&prev.StackSP, next.StackSP)
}

// Notify delivers notif_bits to dst per spec §4.D notify(): if dst is
// blocked awaiting any sender, the notification is synthesised as a message
// immediately and dst resumes; otherwise the bits merely accumulate in
// dst.PendingNotifications for a later recv(ANY) to pick up. Reports whether
// dst was actually resumed, so callers forcing a reschedule on "a task woke
// up" can tell that apart from "a bit was merely recorded".
func (s *Scheduler) Notify(dst *Task, bits Notif) bool {
	if dst.State == Blocked && dst.AwaitedSrc == AnySrc {
		dst.Message = NotifMessage(dst.PendingNotifications | bits)
		dst.PendingNotifications = 0
		s.Resume(dst)
		return true
	}
	dst.PendingNotifications |= bits
	return false
}

// HandleTimerIrq implements the per-tick kernel entry: every active task's
// nonzero timeout is decremented, reaching zero delivers a Timer
// notification; the current task's quantum is decremented; a task switch is
// forced if the quantum went negative or any task was actually resumed by
// timeout (not merely marked pending).
func (s *Scheduler) HandleTimerIrq() {
	s.Stats.TimerTicks.Add(1)
	woke := false
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.State == Unused || t.Timeout == 0 {
			continue
		}
		t.Timeout--
		if t.Timeout == 0 {
			if s.Notify(t, NotifTimer) {
				woke = true
			}
		}
	}
	cur := s.Current()
	cur.Quantum--
	if cur.Quantum < 0 || woke {
		s.TaskSwitch()
	}
}
