// Package mmio models the three memory-mapped device regions spec §6
// treats as external collaborators: UART status/data, the machine timer
// (mtime/mtimecmp), and a clock-rate configuration word. All accesses to
// these regions must be volatile, since nothing else in the address space
// is allowed to reorder or cache them.
package mmio

// Bus is the kernel's view of the device regions. A real implementation
// backs this with an actual MMIO page; HostedBus backs it with an
// anonymous mmap'd page plus atomics standing in for volatile register
// access on a host with no real timer/UART silicon; FakeBus is a
// call-tracking double for unit tests that need to assert exactly what
// the kernel touched.
type Bus interface {
	ReadMTime() uint64
	ReadMTimeCmp() uint64
	WriteMTimeCmp(deadline uint64)
	ClockRateHz() uint32
	UARTReadable() bool
	ReadUARTData() byte
	WriteUARTData(b byte)
}
