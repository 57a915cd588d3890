//go:build giouring
// +build giouring

package main

import (
	"fmt"
	"os"

	"github.com/pawelgaczynski/giouring"
)

// uringWriter writes console bytes to a log file through a giouring ring:
// one PrepWrite SQE per call, submitted and waited on synchronously. There
// is exactly one writer (the console syscall is handled in-kernel, never
// concurrently), so there is no need for the completion-batching internal/
// uring's Batch type exists for on the ublk data path.
type uringWriter struct {
	ring *giouring.Ring
	fd   int32
	file *os.File
}

// newUringWriter opens (creating if needed) the log file at path and a
// small 8-entry ring; Write never has more than one write in flight.
func newUringWriter(path string) (*uringWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("hostbridge: open log: %w", err)
	}
	ring, err := giouring.CreateRing(8)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostbridge: create ring: %w", err)
	}
	return &uringWriter{ring: ring, fd: int32(f.Fd()), file: f}, nil
}

// Write submits p as a single write SQE and blocks for its completion,
// satisfying syscall.Console.
func (w *uringWriter) Write(p []byte) (int, error) {
	sqe := w.ring.GetSQE()
	if sqe == nil {
		return 0, fmt.Errorf("hostbridge: submission queue full")
	}
	sqe.PrepWrite(w.fd, p, 0)

	if _, err := w.ring.Submit(); err != nil {
		return 0, fmt.Errorf("hostbridge: submit: %w", err)
	}
	cqe, err := w.ring.WaitCQE()
	if err != nil {
		return 0, fmt.Errorf("hostbridge: wait cqe: %w", err)
	}
	res := cqe.Res
	w.ring.SeenCQE(cqe)
	if res < 0 {
		return 0, fmt.Errorf("hostbridge: write failed: errno %d", -res)
	}
	return int(res), nil
}

func (w *uringWriter) Close() error {
	w.ring.QueueExit()
	return w.file.Close()
}

var _ consoleWriter = (*uringWriter)(nil)
