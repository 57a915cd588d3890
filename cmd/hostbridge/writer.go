// Package main implements hostbridge, a demo host process that boots the
// kernel module in-process and pipes its console output to a log file.
// Built with the giouring tag it writes through a real io_uring ring — the
// same ring/SQE/CQE wiring the teacher uses for block I/O (internal/uring),
// now carrying kernel console bytes instead of disk blocks; built without
// it, it uses a plain write(2) (DOMAIN STACK,
// SPEC_FULL.md). This is a standalone demo binary, not part of the kernel
// module boundary: the generator/coroutine exercise spec §9 explicitly
// marks out of scope is unrelated to this transport demo.
package main

// consoleWriter is the syscall.Console sink hostbridge hands to
// boot.Bootstrap. Two build-tagged implementations exist, mirroring the
// teacher's own giouring/!giouring split for internal/uring: a real one
// backed by a giouring ring (ring_real.go) and a portable fallback
// (ring_stub.go) for builds without the giouring tag. The choice is made
// at build time only; the ring version does not fall back at run time.
type consoleWriter interface {
	Write(p []byte) (int, error)
	Close() error
}
