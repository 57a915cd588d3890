package mmio

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// HostedBus backs the three device regions with an anonymous mmap'd page
// (there being no real MMIO address space to map on a host), read and
// written only through sync/atomic, which is this model's stand-in for
// "all accesses must be volatile" absent a real volatile-access primitive
// in the language. The mapped page itself is never touched; it exists so
// this type genuinely exercises the same x/sys mapping call a bare-metal
// backend would use to establish its MMIO window, per the module's
// dependency wiring (see DESIGN.md).
type HostedBus struct {
	page []byte

	mtime     atomic.Uint64
	mtimecmp  atomic.Uint64
	clockRate uint32

	uartOut chan byte
	uartIn  chan byte
}

// NewHostedBus mmaps the register page and returns a bus clocked at
// clockRateHz.
func NewHostedBus(clockRateHz uint32) (*HostedBus, error) {
	page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return &HostedBus{
		page:      page,
		clockRate: clockRateHz,
		uartOut:   make(chan byte, 4096),
		uartIn:    make(chan byte, 4096),
	}, nil
}

// Close unmaps the register page.
func (b *HostedBus) Close() error {
	return unix.Munmap(b.page)
}

// Tick advances mtime, as the real hardware's free-running counter would
// between two kernel entries.
func (b *HostedBus) Tick(delta uint64) {
	b.mtime.Add(delta)
}

func (b *HostedBus) ReadMTime() uint64             { return b.mtime.Load() }
func (b *HostedBus) ReadMTimeCmp() uint64          { return b.mtimecmp.Load() }
func (b *HostedBus) WriteMTimeCmp(deadline uint64) { b.mtimecmp.Store(deadline) }
func (b *HostedBus) ClockRateHz() uint32           { return b.clockRate }

// UARTReadable reports whether a byte is waiting in the simulated input
// FIFO (fed by InjectInput, e.g. from a host console).
func (b *HostedBus) UARTReadable() bool {
	return len(b.uartIn) > 0
}

func (b *HostedBus) ReadUARTData() byte {
	return <-b.uartIn
}

// WriteUARTData enqueues a transmitted byte for a host-side consumer
// (cmd/hostbridge) to drain via DrainOutput.
func (b *HostedBus) WriteUARTData(c byte) {
	b.uartOut <- c
}

// InjectInput feeds bytes into the simulated UART input FIFO.
func (b *HostedBus) InjectInput(bs []byte) {
	for _, c := range bs {
		b.uartIn <- c
	}
}

// DrainOutput removes and returns every byte written so far, blocking
// until at least one is available.
func (b *HostedBus) DrainOutput() []byte {
	out := []byte{<-b.uartOut}
	for {
		select {
		case c := <-b.uartOut:
			out = append(out, c)
		default:
			return out
		}
	}
}

var _ Bus = (*HostedBus)(nil)
