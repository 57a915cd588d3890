package boot

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/kernel"
)

func TestBootstrapCreatesIdleInitMallocConsoleTasks(t *testing.T) {
	sw := arch.NewFakeSwitcher()
	kcfg := kernel.Config{NumTasks: 8, NumPriorities: 4, TimeSlice: 4, PageSize: 4096}
	var console bytes.Buffer
	mem := make(FlatMemory, 256)

	sys, err := Bootstrap(kcfg, kcfg.NumTasks, sw, nil, &console, mem)
	require.NoError(t, err)

	idle, _ := sys.Scheduler.TaskByTid(kernel.KernelTid)
	require.Equal(t, kernel.Idle, idle.TaskType)

	for _, tid := range []int{InitTid, MallocTid, ConsoleTid} {
		task, err := sys.Scheduler.TaskByTid(tid)
		require.NoError(t, err)
		require.Equal(t, kernel.User, task.TaskType)
		require.Equal(t, kernel.Runnable, task.State)
	}
}

// TestBootstrapInitTaskRunsSelfTestThenParks drives the real scheduler and
// asserts init_task's one-shot allocator round trip actually produced
// console output before it parks forever.
func TestBootstrapInitTaskRunsSelfTestThenParks(t *testing.T) {
	sw := arch.NewFakeSwitcher()
	kcfg := kernel.Config{NumTasks: 8, NumPriorities: 4, TimeSlice: 4, PageSize: 4096}
	var console bytes.Buffer
	mem := make(FlatMemory, 256)

	sys, err := Bootstrap(kcfg, kcfg.NumTasks, sw, nil, &console, mem)
	require.NoError(t, err)

	go sys.Scheduler.Start()

	require.Eventually(t, func() bool {
		return console.Len() > 0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "init task started\n", console.String())

	init, _ := sys.Scheduler.TaskByTid(InitTid)
	require.Eventually(t, func() bool {
		return init.State == kernel.Blocked && init.AwaitedSrc == kernel.DenySrc
	}, time.Second, 5*time.Millisecond)
}
