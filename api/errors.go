// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for melcomm.

package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Common errors used across the library.
var (
	ErrNotSupported      = errors.New("operation not supported on this platform")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotMapped         = errors.New("shared memory region is not mapped")
	ErrSizeMismatch      = errors.New("existing region is smaller than requested")
	ErrDatagramTooLarge  = errors.New("datagram exceeds maximum size")
	ErrPacketTooLarge    = errors.New("packet exceeds maximum size")
	ErrAddressUnresolved = errors.New("address could not be resolved")
	ErrClosed            = errors.New("resource is closed")
)

// ErrorCode classifies a failure the way callers react to it.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	// ErrCodeInvalidArgument is a rejected call or configuration value.
	ErrCodeInvalidArgument
	// ErrCodeProtocol is data a peer must not send, such as an oversized
	// stream packet.
	ErrCodeProtocol
)

var codeSentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument: ErrInvalidArgument,
	ErrCodeProtocol:        ErrPacketTooLarge,
}

// Error carries a code and key/value context. errors.Is matches it against
// the sentinel of its code.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(e.Message)
	for i, k := range keys {
		sep := ", "
		if i == 0 {
			sep = ": "
		}
		fmt.Fprintf(&b, "%s%s=%v", sep, k, e.Context[k])
	}
	return b.String()
}

// Unwrap returns the sentinel for the code, or nil.
func (e *Error) Unwrap() error { return codeSentinels[e.Code] }

// NewError returns an Error without context.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithContext records key=value and returns e.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 2)
	}
	e.Context[key] = value
	return e
}
