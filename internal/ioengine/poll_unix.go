//go:build unix

package ioengine

import "golang.org/x/sys/unix"

// systemPoll is the default PollFunc, backed by poll(2). Event values are
// shared with the kernel's, so masks pass through unchanged.
func systemPoll(fds []PollFD, timeoutMs int) (int, error) {
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd.FD), Events: int16(fd.Events)}
	}
	n, err := unix.Poll(pfds, timeoutMs)
	if err != nil {
		return n, err
	}
	for i := range fds {
		fds[i].Revents = Events(pfds[i].Revents)
	}
	return n, nil
}
