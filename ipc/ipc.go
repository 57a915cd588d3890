// Package ipc implements the kernel's synchronous rendezvous IPC: send,
// recv, call and notify, per spec §4.D. There is no kernel-buffered
// mailbox — message bytes move directly between a sender's and a
// receiver's Message slot at the instant both sides are matched.
//
// Send/Recv/Call mutate the same task table and sender queues
// kernel.Scheduler owns, so the basic state transitions (Block/Resume,
// the sender queues themselves) are Scheduler methods; this package is the
// policy layer on top: flag handling (NOBLOCK), argument validation
// producing the error taxonomy in §7, and the rendezvous-matching
// algorithm (resume_sender), including the pinning of AwaitedSrc. Notify is a
// thin pass-through to kernel.Scheduler.Notify, kept here for call-site
// symmetry with Send/Recv/Call even though its logic needs nothing ipc
// itself owns.
package ipc

import (
	"github.com/ehrlich-b/microkern/internal/klist"
	"github.com/ehrlich-b/microkern/kernel"
	"github.com/ehrlich-b/microkern/kernel/kerr"
)

// Flags controls ipc_send / ipc_recv blocking behaviour.
type Flags uint32

const (
	None    Flags = 0
	NoBlock Flags = 1 << 0
)

// Engine binds the rendezvous operations to one Scheduler instance.
type Engine struct {
	sched *kernel.Scheduler
}

// New creates an Engine over the given scheduler.
func New(s *kernel.Scheduler) *Engine {
	return &Engine{sched: s}
}

func (e *Engine) validTid(tid int) bool {
	return tid >= 0 && tid < e.sched.Config().NumTasks
}

// Send implements send(dst, msg, flags) per spec §4.D.
func (e *Engine) Send(dstTid int, msg kernel.Message, flags Flags) error {
	if !e.validTid(dstTid) {
		return kerr.Task("ipc_send", dstTid, kerr.InvalidArg, "dst tid out of range")
	}
	cur := e.sched.Current()
	dst, _ := e.sched.TaskByTid(dstTid)
	if dst.State == kernel.Unused {
		return kerr.Task("ipc_send", dstTid, kerr.InvalidTask, "destination unused")
	}

	receiverReady := dst.State == kernel.Blocked &&
		(dst.AwaitedSrc == kernel.AnySrc || dst.AwaitedSrc == uint32(cur.Tid))

	if !receiverReady {
		if flags&NoBlock != 0 {
			e.sched.Stats.WouldBlock.Add(1)
			return kerr.Task("ipc_send", dstTid, kerr.WouldBlock, "receiver not ready")
		}
		cur.AwaitedSrc = kernel.DenySrc
		e.sched.Block(cur)
		e.sched.SenderQueue(dstTid).PushBack(int32(cur.Tid))
		e.sched.TaskSwitch()

		if cur.PendingNotifications&kernel.NotifAborted != 0 {
			cur.PendingNotifications &^= kernel.NotifAborted
			e.sched.Stats.Aborted.Add(1)
			return kerr.Task("ipc_send", dstTid, kerr.Aborted, "send aborted")
		}
	}

	dst.Message = msg
	e.sched.Resume(dst)
	e.sched.Stats.Rendezvous.Add(1)
	return nil
}

// Recv implements recv(src, msg_out, flags) per spec §4.D.
func (e *Engine) Recv(src uint32, msgOut *kernel.Message, flags Flags) error {
	cur := e.sched.Current()

	if src != kernel.AnySrc && src != kernel.DenySrc && !e.validTid(int(src)) {
		return kerr.Task("ipc_recv", cur.Tid, kerr.InvalidArg, "src tid out of range")
	}

	if src == kernel.AnySrc && cur.PendingNotifications != 0 {
		*msgOut = kernel.NotifMessage(cur.PendingNotifications)
		cur.PendingNotifications = 0
		return nil
	}

	if flags&NoBlock != 0 {
		e.sched.Stats.WouldBlock.Add(1)
		return kerr.Task("ipc_recv", cur.Tid, kerr.WouldBlock, "no message or notification available")
	}

	e.resumeSender(cur, src)
	e.sched.Block(cur)
	e.sched.TaskSwitch()

	*msgOut = cur.Message
	return nil
}

// resumeSender implements resume_sender(receiver, src): among tasks queued
// on receiver's sender queue, pick the first whose tid matches src (or any
// if src == AnySrc). If found, resume it, unlink it, and pin
// receiver.AwaitedSrc to its tid so a racing third sender cannot steal the
// rendezvous before the pinned sender actually runs. If not found, just
// record what receiver is now willing to accept.
func (e *Engine) resumeSender(receiver *kernel.Task, src uint32) {
	q := e.sched.SenderQueue(receiver.Tid)

	found := klist.Nil
	if src == kernel.AnySrc {
		if idx, ok := q.Front(); ok {
			found = idx
		}
	} else {
		for _, idx := range q.Iter() {
			t, _ := e.sched.TaskByTid(int(idx))
			if uint32(t.Tid) == src {
				found = idx
				break
			}
		}
	}

	if found == klist.Nil {
		receiver.AwaitedSrc = src
		return
	}

	q.Remove(found)
	sender, _ := e.sched.TaskByTid(int(found))
	e.sched.Resume(sender)
	receiver.AwaitedSrc = uint32(sender.Tid)
}

// Call implements call(dst, src, msg, flags): send then recv. A
// non-blocking send still blocks on the recv half (flags has NOBLOCK
// cleared for it) since a peer that just accepted the request is expected
// to respond promptly. src is the recv-side filter (typically the callee's
// tid, or kernel.AnySrc), exactly as spec §4.D's call(dst, src, msg, flags)
// passes it through.
func (e *Engine) Call(dstTid int, src uint32, msg *kernel.Message, flags Flags) error {
	if err := e.Send(dstTid, *msg, flags); err != nil {
		return err
	}
	return e.Recv(src, msg, flags&^NoBlock)
}

// Notify implements notify(dst, notif_bits), delegating the actual state
// transition to kernel.Scheduler.Notify.
func (e *Engine) Notify(dstTid int, bits kernel.Notif) error {
	if !e.validTid(dstTid) {
		return kerr.Task("notify", dstTid, kerr.InvalidArg, "dst tid out of range")
	}
	dst, _ := e.sched.TaskByTid(dstTid)
	if dst.State == kernel.Unused {
		return kerr.Task("notify", dstTid, kerr.InvalidTask, "target unused")
	}
	e.sched.Notify(dst, bits)
	e.sched.Stats.NotificationsSent.Add(1)
	return nil
}
