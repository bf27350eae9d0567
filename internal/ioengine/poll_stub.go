//go:build !unix

package ioengine

import "syscall"

// systemPoll has no implementation on this platform; supply Config.Poll.
func systemPoll([]PollFD, int) (int, error) {
	return 0, syscall.ENOSYS
}
