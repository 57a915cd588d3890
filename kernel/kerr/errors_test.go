package kerr

import (
	"errors"
	"testing"
)

func TestNewError(t *testing.T) {
	err := New("ipc_send", InvalidArg, "bad flags")

	if err.Op != "ipc_send" {
		t.Errorf("Expected Op=ipc_send, got %s", err.Op)
	}
	if err.Kind != InvalidArg {
		t.Errorf("Expected Kind=InvalidArg, got %s", err.Kind)
	}

	expected := "kernel: ipc_send: bad flags"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestTaskError(t *testing.T) {
	err := Task("ipc_recv", 3, InvalidTask, "tid unused")

	if err.Tid != 3 {
		t.Errorf("Expected Tid=3, got %d", err.Tid)
	}

	expected := "kernel: ipc_recv: tid=3: tid unused"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestWrapError(t *testing.T) {
	inner := Task("alloc", 2, NoMemory, "heap exhausted")
	wrapped := Wrap("dealloc", inner)

	if wrapped.Kind != NoMemory {
		t.Errorf("Expected Kind=NoMemory, got %s", wrapped.Kind)
	}
	if wrapped.Tid != 2 {
		t.Errorf("Expected Tid preserved as 2, got %d", wrapped.Tid)
	}
	if wrapped.Op != "dealloc" {
		t.Errorf("Expected Op=dealloc, got %s", wrapped.Op)
	}

	if Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := New("set_timer", TooLarge, "ms overflow")

	if !Is(err, TooLarge) {
		t.Error("Is should return true for matching kind")
	}
	if Is(err, TooSmall) {
		t.Error("Is should return false for non-matching kind")
	}
	if Is(nil, TooLarge) {
		t.Error("Is should return false for nil error")
	}
}

func TestErrorsIsAgainstKind(t *testing.T) {
	err := New("create_task", AlreadyExists, "slot in use")

	if !errors.Is(err, AlreadyExists) {
		t.Error("errors.Is should match against a bare Kind via Error.Is")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != Ok {
		t.Error("KindOf(nil) should be Ok")
	}

	err := New("console_write", TooLarge, "len > 1024")
	if KindOf(err) != TooLarge {
		t.Errorf("KindOf(err) = %s, want TooLarge", KindOf(err))
	}

	if KindOf(errors.New("plain")) != Unavailable {
		t.Error("KindOf on a non-*Error should fall back to Unavailable")
	}
}

func TestErrnoRoundTrip(t *testing.T) {
	for _, k := range []Kind{Ok, NoMemory, WouldBlock, Aborted, InvalidTask, NotReady} {
		if FromErrno(k.Errno()) != k {
			t.Errorf("FromErrno(%s.Errno()) did not round-trip", k)
		}
	}
}
