// Package kerr defines the kernel's error taxonomy: a small, stable set of
// discriminants that can cross the syscall boundary as a single u32, plus a
// structured *Error carrying the operation and task context an internal
// caller needs for diagnosis.
package kerr

import (
	"errors"
	"fmt"
)

// Kind is a stable discriminant, serialisable as a single u32 across the
// syscall boundary (see Kind.Errno).
type Kind uint32

const (
	Ok Kind = iota
	NoMemory
	NotPermitted
	WouldBlock
	Aborted
	TooLarge
	TooSmall
	NotFound
	InvalidArg
	InvalidTask
	AlreadyExists
	Unavailable
	NotAcceptable
	Empty
	InUse
	TryAgain
	NotReady
)

var kindNames = map[Kind]string{
	Ok:            "ok",
	NoMemory:      "no memory",
	NotPermitted:  "not permitted",
	WouldBlock:    "would block",
	Aborted:       "aborted",
	TooLarge:      "too large",
	TooSmall:      "too small",
	NotFound:      "not found",
	InvalidArg:    "invalid argument",
	InvalidTask:   "invalid task",
	AlreadyExists: "already exists",
	Unavailable:   "unavailable",
	NotAcceptable: "not acceptable",
	Empty:         "empty",
	InUse:         "in use",
	TryAgain:      "try again",
	NotReady:      "not ready",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// Error makes a bare Kind usable as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Errno returns the single-word discriminant a syscall return value carries:
// 0 for Ok, the Kind value otherwise. This is the wire representation
// described in spec §6/§7 ("Return value in a0: 0 on success, else an
// integer error code").
func (k Kind) Errno() uint32 {
	return uint32(k)
}

// FromErrno reconstructs a Kind from a syscall return value. User tasks that
// only care whether the call failed should compare against Ok; those that
// want the specific kind re-expand it here.
func FromErrno(v uint32) Kind {
	return Kind(v)
}

// Error is the kernel's structured error type: an operation name, the task
// it concerns (if any), a Kind, and an optional wrapped cause.
type Error struct {
	Op    string // operation that failed, e.g. "ipc_send", "alloc"
	Tid   int    // task id concerned (-1 if not applicable)
	Kind  Kind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Tid >= 0 {
		return fmt.Sprintf("kernel: %s: tid=%d: %s", e.Op, e.Tid, msg)
	}
	return fmt.Sprintf("kernel: %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is against both a *Error (compares Kind) and a bare
// Kind value.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New creates a structured error with no task context.
func New(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Tid: -1, Kind: kind, Msg: msg}
}

// Task creates a structured error concerning a specific task.
func Task(op string, tid int, kind Kind, msg string) *Error {
	return &Error{Op: op, Tid: tid, Kind: kind, Msg: msg}
}

// Wrap attaches operation context to an existing error, preserving Kind and
// task context if inner is already a *Error.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	var ie *Error
	if errors.As(inner, &ie) {
		return &Error{Op: op, Tid: ie.Tid, Kind: ie.Kind, Msg: ie.Msg, Inner: ie.Inner}
	}
	return &Error{Op: op, Tid: -1, Kind: Unavailable, Msg: inner.Error(), Inner: inner}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or Ok if err is nil, or Unavailable if
// err is not a *Error.
func KindOf(err error) Kind {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unavailable
}
