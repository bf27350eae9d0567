//go:build unix

// Package osfd provides an owning wrapper around a raw file descriptor, so
// code that hands fds to the I/O engine has a single place responsible for
// closing them.
package osfd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Handle owns a raw file descriptor and closes it exactly once.
type Handle struct {
	fd int
}

// New takes ownership of fd. A negative fd yields an invalid handle.
func New(fd int) *Handle {
	return &Handle{fd: fd}
}

// FD returns the raw descriptor, or -1 for an invalid handle.
func (h *Handle) FD() int {
	if h == nil {
		return -1
	}
	return h.fd
}

// Valid reports whether the handle currently owns a descriptor.
func (h *Handle) Valid() bool {
	return h != nil && h.fd >= 0
}

// Close releases the descriptor. Closing an already-closed or invalid handle
// is a no-op.
func (h *Handle) Close() error {
	if !h.Valid() {
		return nil
	}
	fd := h.fd
	h.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close fd %d: %w", fd, err)
	}
	return nil
}

// Release gives up ownership and returns the raw descriptor; the handle
// becomes invalid and Close becomes a no-op.
func (h *Handle) Release() int {
	fd := h.fd
	h.fd = -1
	return fd
}

// Pipe returns the read and write ends of a new pipe, both nonblocking.
func Pipe() (r, w *Handle, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, nil, fmt.Errorf("pipe: %w", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, nil, fmt.Errorf("set nonblock: %w", err)
		}
	}
	return New(fds[0]), New(fds[1]), nil
}
