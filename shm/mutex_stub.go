//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

// File: shm/mutex_stub.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"time"

	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
)

type mutexHandle struct{}

func openMutex(string, api.OpenMode) (*mutexHandle, error) {
	return nil, errors.Wrap(api.ErrNotSupported, "shm: named mutex")
}

func (*mutexHandle) acquire(func() time.Duration) bool { return false }
func (*mutexHandle) release() {}
func (*mutexHandle) close() error { return nil }

func removeMutex(string) error { return errors.Wrap(api.ErrNotSupported, "shm") }
