//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

// File: shm/shm_stub.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
)

type mapping struct{}

func openMapping(string, int, api.OpenMode, bool) (*mapping, []byte, error) {
	return nil, nil, errors.Wrap(api.ErrNotSupported, "shm")
}

func (*mapping) close([]byte) error { return nil }

func removeMapping(string) error { return errors.Wrap(api.ErrNotSupported, "shm") }
