//go:build !linux && !darwin
// +build !linux,!darwin

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
)

// NewPoller returns an error for unsupported platforms.
func NewPoller() (Poller, error) {
	return nil, errors.Wrap(api.ErrNotSupported, "reactor")
}
