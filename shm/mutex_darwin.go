//go:build darwin
// +build darwin

// File: shm/mutex_darwin.go
// Author: momentics <momentics@gmail.com>
//
// flock mutex on a lock file. Every acquisition opens its own descriptor
// since flock treats locks on one open file as already held.

package shm

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

const flockPollInterval = 500 * time.Microsecond

type mutexHandle struct {
	path string
	mu   sync.Mutex
	held []*os.File
}

func openMutex(name string, mode api.OpenMode) (*mutexHandle, error) {
	path := regionPath(lockName(name))
	flag := os.O_RDWR
	if mode == api.OpenOrCreate {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(api.ErrNotMapped, "shm: %s does not exist", path)
		}
		return nil, errors.Wrap(err, "shm: open lock file")
	}
	f.Close()
	return &mutexHandle{path: path}, nil
}

func (h *mutexHandle) acquire(remaining func() time.Duration) bool {
	f, err := os.OpenFile(h.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		h.push(nil)
		return false
	}
	defer h.push(f)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		switch err {
		case nil:
			return true
		case unix.EWOULDBLOCK, unix.EINTR:
		default:
			return false
		}
		if remaining() <= 0 {
			return false
		}
		time.Sleep(flockPollInterval)
	}
}

func (h *mutexHandle) push(f *os.File) {
	h.mu.Lock()
	h.held = append(h.held, f)
	h.mu.Unlock()
}

func (h *mutexHandle) release() {
	h.mu.Lock()
	n := len(h.held)
	if n == 0 {
		h.mu.Unlock()
		return
	}
	f := h.held[n-1]
	h.held = h.held[:n-1]
	h.mu.Unlock()
	if f != nil {
		f.Close()
	}
}

func (h *mutexHandle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, f := range h.held {
		if f != nil {
			f.Close()
		}
	}
	h.held = nil
	return nil
}

func removeMutex(name string) error {
	err := os.Remove(regionPath(lockName(name)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "shm: remove lock file")
	}
	return nil
}
