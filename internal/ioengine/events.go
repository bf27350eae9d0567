package ioengine

import "strings"

// Events is a bitmask of readiness conditions on a descriptor, both as
// interest (what a waiter cares about) and as a result (what a query
// observed). Values match poll(2) so the system poller passes them through
// unchanged.
type Events int16

const (
	// EventIn indicates the descriptor is readable.
	EventIn Events = 0x001
	// EventPri indicates urgent out-of-band data is readable.
	EventPri Events = 0x002
	// EventOut indicates the descriptor is writable.
	EventOut Events = 0x004
	// EventErr indicates an error condition on the descriptor (result only).
	EventErr Events = 0x008
	// EventHup indicates the peer hung up (result only).
	EventHup Events = 0x010
	// EventNval indicates the descriptor is not open (result only).
	EventNval Events = 0x020
)

// eventFault are the conditions a query reports regardless of interest and
// that complete a wait as a failure.
const eventFault = EventErr | EventHup | EventNval

var eventNames = []struct {
	bit  Events
	name string
}{
	{EventIn, "POLLIN"},
	{EventPri, "POLLPRI"},
	{EventOut, "POLLOUT"},
	{EventErr, "POLLERR"},
	{EventHup, "POLLHUP"},
	{EventNval, "POLLNVAL"},
}

// String returns the string representation of the mask, e.g. "POLLIN|POLLHUP".
func (e Events) String() string {
	if e == 0 {
		return "0"
	}
	var sb strings.Builder
	rest := e
	for _, n := range eventNames {
		if rest&n.bit == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(n.name)
		rest &^= n.bit
	}
	if rest != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("0x")
		const hex = "0123456789abcdef"
		sb.WriteByte(hex[(rest>>4)&0xf])
		sb.WriteByte(hex[rest&0xf])
	}
	return sb.String()
}

// PollFD is one entry of a batched readiness query. Entries with a negative
// FD are pure timers; poll(2) ignores them but they keep the query
// index-aligned with the pending set.
type PollFD struct {
	FD      int
	Events  Events
	Revents Events
}

// PollFunc performs one batched readiness query over fds, blocking for at
// most timeoutMs milliseconds (0 returns immediately, -1 blocks without
// limit). It returns the number of entries with non-zero Revents. A query
// interrupted by a signal must return an error matching syscall.EINTR; the
// engine retries that transparently.
type PollFunc func(fds []PollFD, timeoutMs int) (int, error)
