// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness poller used by the socket selector.

package reactor

import (
	"time"

	"github.com/momentics/melcomm/api"
)

// Poller is a level-triggered readiness multiplexer over OS descriptors.
type Poller interface {
	// Register adds fd with the given interest set.
	Register(fd uintptr, events api.EventType) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd uintptr, events api.EventType) error

	// Unregister removes fd. Unknown descriptors are ignored.
	Unregister(fd uintptr) error

	// Wait blocks until at least one descriptor is ready or the timeout
	// expires and writes the ready set into events. A negative timeout
	// waits forever, zero polls without blocking. An interrupted wait
	// reports zero events and no error.
	Wait(events []Event, timeout time.Duration) (n int, err error)

	// Close releases the poller.
	Close() error
}

// Event is one ready descriptor returned by Wait.
type Event struct {
	Fd     uintptr
	Events api.EventType
}

// timeoutMillis converts a wait timeout to the millisecond argument of
// epoll_wait/poll, rounding sub-millisecond waits up.
func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > time.Duration(1<<31-1) {
		return 1<<31 - 1
	}
	return int(ms)
}
