//go:build windows
// +build windows

// File: shm/mutex_windows.go
// Author: momentics <momentics@gmail.com>
//
// Kernel named mutex. Ownership belongs to an OS thread, so the calling
// goroutine stays on its thread from Lock to Unlock.

package shm

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/momentics/melcomm/api"
)

type mutexHandle struct {
	h windows.Handle
}

func openMutex(name string, mode api.OpenMode) (*mutexHandle, error) {
	wname, err := windows.UTF16PtrFromString(`Local\` + namePrefix + lockName(name))
	if err != nil {
		return nil, errors.Wrap(api.ErrInvalidArgument, err.Error())
	}
	if mode == api.OpenOnly {
		h, err := windows.OpenMutex(windows.MUTEX_ALL_ACCESS, false, wname)
		if err != nil {
			return nil, errors.Wrapf(api.ErrNotMapped, "shm: mutex %s: %v", name, err)
		}
		return &mutexHandle{h: h}, nil
	}
	h, err := windows.CreateMutex(nil, false, wname)
	if h == 0 {
		return nil, errors.Wrap(err, "shm: CreateMutex")
	}
	return &mutexHandle{h: h}, nil
}

func (h *mutexHandle) acquire(remaining func() time.Duration) bool {
	runtime.LockOSThread()
	slice := uint32(waitSlice / time.Millisecond)
	for {
		ev, err := windows.WaitForSingleObject(h.h, slice)
		switch ev {
		case windows.WAIT_OBJECT_0, windows.WAIT_ABANDONED:
			return true
		case uint32(windows.WAIT_TIMEOUT):
			if remaining() <= 0 {
				return false
			}
		default:
			zap.L().Warn("shm: mutex wait failed", zap.Error(err))
			return false
		}
	}
}

func (h *mutexHandle) release() {
	if err := windows.ReleaseMutex(h.h); err != nil {
		zap.L().Debug("shm: mutex released without ownership", zap.Error(err))
	}
	runtime.UnlockOSThread()
}

func (h *mutexHandle) close() error {
	return errors.Wrap(windows.CloseHandle(h.h), "shm: close mutex")
}

func removeMutex(string) error { return nil }
