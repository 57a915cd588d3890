package malloc

import (
	"github.com/ehrlich-b/microkern/ipc"
	"github.com/ehrlich-b/microkern/kernel"
	"github.com/ehrlich-b/microkern/kernel/kerr"
	"github.com/ehrlich-b/microkern/wire"
)

// Task binds a Heap to the IPC engine as the allocator task described in
// spec §4.F's concurrency model: single-threaded, one request served per
// recv/send round trip, no internal locking needed since nothing else
// touches this Heap concurrently.
type Task struct {
	Tid  int
	Heap *Heap
	IPC  *ipc.Engine
}

// NewTask builds the allocator task bound to tid, serving requests out of
// a freshly allocated heap sized for numClients.
func NewTask(tid, numClients int, e *ipc.Engine) *Task {
	return &Task{Tid: tid, Heap: NewHeap(DefaultConfig(numClients)), IPC: e}
}

// Run is the allocator task's entry point: installed as the arch.EntryFunc
// for kernel.CreateUserTask, it never returns in ordinary operation.
func (task *Task) Run() {
	for {
		var msg kernel.Message
		if err := task.IPC.Recv(kernel.AnySrc, &msg, ipc.None); err != nil {
			continue
		}
		task.handle(int(msg.Src), msg)
	}
}

func (task *Task) handle(clientTid int, msg kernel.Message) {
	switch msg.Type {
	case wire.TypeAllocRequest:
		req := wire.DecodeAllocRequest(msg.Raw)
		ptr, err := task.Heap.Alloc(req.Size, req.Align, clientTid)
		resp := wire.AllocResponse{Ptr: ptr, Kind: kerr.KindOf(err).Errno()}
		out := kernel.Message{Type: wire.TypeAllocResponse, Src: uint32(task.Tid), Raw: resp.Encode()}
		task.IPC.Send(clientTid, out, ipc.None)

	case wire.TypeDeallocRequest:
		req := wire.DecodeDeallocRequest(msg.Raw)
		err := task.Heap.Dealloc(req.Ptr, clientTid)
		resp := wire.DeallocResponse{Kind: kerr.KindOf(err).Errno()}
		out := kernel.Message{Type: wire.TypeDeallocResponse, Src: uint32(task.Tid), Raw: resp.Encode()}
		task.IPC.Send(clientTid, out, ipc.None)
	}
}
