package syscall

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/ipc"
	"github.com/ehrlich-b/microkern/kernel"
	"github.com/ehrlich-b/microkern/kernel/kerr"
)

type stubMemory struct {
	data []byte
}

func (m stubMemory) ReadBytes(ptr, length uint32) ([]byte, error) {
	if uint64(ptr)+uint64(length) > uint64(len(m.data)) {
		return nil, kerr.New("read_bytes", kerr.InvalidArg, "out of range")
	}
	return m.data[ptr : ptr+length], nil
}

func newTestDispatcher(t *testing.T, console Console, mem Memory) (*kernel.Scheduler, *Dispatcher) {
	t.Helper()
	sw := arch.NewFakeSwitcher()
	cfg := kernel.Config{NumTasks: 4, NumPriorities: 2, TimeSlice: 4, PageSize: 4096}
	s := kernel.NewScheduler(cfg, sw, nil)
	require.NoError(t, s.CreateIdleTask(func() {}))
	e := ipc.New(s)
	return s, New(s, e, console, mem)
}

func TestNopReturnsOk(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(Nop, 0, ipc.None, Args{})
	require.Equal(t, kerr.Ok, res.Kind)
}

func TestSetTimerSetsCurrentTaskTimeout(t *testing.T) {
	s, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(SetTimer, 0, ipc.None, Args{A0: 250})
	require.Equal(t, kerr.Ok, res.Kind)
	require.Equal(t, uint32(250), s.Current().Timeout)
}

func TestConsoleWriteRejectsOversizedLength(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(ConsoleWrite, 0, ipc.None, Args{A0: 0, A1: MaxConsoleWrite + 1})
	require.Equal(t, kerr.TooLarge, res.Kind)
}

func TestConsoleWriteWritesBytesFromMemory(t *testing.T) {
	var out bytes.Buffer
	mem := stubMemory{data: []byte("hello, console")}
	_, d := newTestDispatcher(t, &out, mem)

	res := d.Dispatch(ConsoleWrite, 0, ipc.None, Args{A0: 0, A1: 5})
	require.Equal(t, kerr.Ok, res.Kind)
	require.Equal(t, "hello", out.String())
}

func TestConsoleWriteWithoutConsoleIsUnavailable(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(ConsoleWrite, 0, ipc.None, Args{A0: 0, A1: 1})
	require.Equal(t, kerr.Unavailable, res.Kind)
}

func TestIpcSendRejectsOutOfRangeDst(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	var msg kernel.Message
	res := d.Dispatch(IpcSend, OpSend, ipc.None, Args{A0: 99, Msg: &msg})
	require.Equal(t, kerr.InvalidArg, res.Kind)
}

func TestIpcRecvNoBlockWouldBlockOnIdleWithNothingPending(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	var msg kernel.Message
	res := d.Dispatch(IpcRecv, OpRecv, ipc.NoBlock, Args{A0: uint32(kernel.AnySrc), Msg: &msg})
	require.Equal(t, kerr.WouldBlock, res.Kind)
}

func TestNotifyRejectsUnusedTarget(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(Notify, 0, ipc.None, Args{A0: 2, A1: uint32(kernel.NotifTimer)})
	require.Equal(t, kerr.InvalidTask, res.Kind)
}

func TestCreateTaskWithoutRegisteredEntryIsNotFound(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	res := d.Dispatch(CreateTask, 0, ipc.None, Args{A0: 1, A1: 7})
	require.Equal(t, kerr.NotFound, res.Kind)
}

func TestCreateTaskWithRegisteredEntryCreatesRunnableTask(t *testing.T) {
	s, d := newTestDispatcher(t, nil, nil)
	d.RegisterEntry(7, func() {})

	res := d.Dispatch(CreateTask, 0, ipc.None, Args{A0: 1, A1: 7})
	require.Equal(t, kerr.Ok, res.Kind)

	task, err := s.TaskByTid(1)
	require.NoError(t, err)
	require.Equal(t, kernel.Runnable, task.State)
}

func TestCreateTaskRejectsOutOfRangeTid(t *testing.T) {
	_, d := newTestDispatcher(t, nil, nil)
	d.RegisterEntry(7, func() {})
	res := d.Dispatch(CreateTask, 0, ipc.None, Args{A0: 99, A1: 7})
	require.Equal(t, kerr.InvalidArg, res.Kind)
}
