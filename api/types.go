// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// OpenMode selects how named shared objects are obtained.
type OpenMode int

const (
	// OpenOrCreate opens the named object, creating it when absent.
	OpenOrCreate OpenMode = iota
	// OpenOnly opens an existing object and fails when it is absent.
	OpenOnly
)

func (m OpenMode) String() string {
	switch m {
	case OpenOrCreate:
		return "open-or-create"
	case OpenOnly:
		return "open-only"
	default:
		return "unknown"
	}
}

// EventType is a readiness interest/result bitmask.
type EventType uint8

const (
	EventRead EventType = 1 << iota
	EventWrite
	EventError
)

// InvalidFD is the raw descriptor value of a socket with no OS handle.
const InvalidFD = ^uintptr(0)

// Selectable is anything exposing an OS-level descriptor that can be
// multiplexed by a selector.
type Selectable interface {
	// RawFD returns the underlying OS-level file descriptor, or InvalidFD.
	RawFD() uintptr
}
