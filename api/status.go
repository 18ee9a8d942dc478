// File: api/status.go
// Author: momentics <momentics@gmail.com>
//
// Socket operation outcome reported instead of errors.

package api

// Status is the outcome of a socket operation.
//
// StatusNotReady is only produced by non-blocking sockets and is not an
// error: the caller retries later or waits on a selector. StatusPartial is
// produced by stream sends that accepted fewer bytes than requested.
type Status int

const (
	StatusDone Status = iota
	StatusNotReady
	StatusPartial
	StatusDisconnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNotReady:
		return "not-ready"
	case StatusPartial:
		return "partial"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "error"
	}
}

// OK reports whether the operation completed.
func (s Status) OK() bool { return s == StatusDone }
