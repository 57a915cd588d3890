//go:build !giouring
// +build !giouring

package main

import "os"

// uringWriter without the giouring build tag falls back to a plain
// write(2) through *os.File, the same degrade-gracefully shape the
// teacher's internal/uring/iouring_stub.go uses for NewRealRing.
type uringWriter struct {
	file *os.File
}

func newUringWriter(path string) (*uringWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &uringWriter{file: f}, nil
}

func (w *uringWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *uringWriter) Close() error {
	return w.file.Close()
}

var _ consoleWriter = (*uringWriter)(nil)
