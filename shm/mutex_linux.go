//go:build linux
// +build linux

// File: shm/mutex_linux.go
// Author: momentics <momentics@gmail.com>
//
// Futex mutex in a small shared region. The word is 0 when free, 1 when
// held and 2 when held with waiters.

package shm

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/melcomm/api"
)

// Shared (not process-private) futex operations.
const (
	futexWaitOp = 0
	futexWakeOp = 1
)

const mutexRegionSize = 64

type mutexHandle struct {
	m    *mapping
	data []byte
	word *uint32
}

func openMutex(name string, mode api.OpenMode) (*mutexHandle, error) {
	m, data, err := openMapping(lockName(name), mutexRegionSize, mode, false)
	if err != nil {
		return nil, err
	}
	return &mutexHandle{m: m, data: data, word: (*uint32)(unsafe.Pointer(&data[0]))}, nil
}

func (h *mutexHandle) acquire(remaining func() time.Duration) bool {
	if atomic.CompareAndSwapUint32(h.word, 0, 1) {
		return true
	}
	for {
		if atomic.SwapUint32(h.word, 2) == 0 {
			return true
		}
		left := remaining()
		if left <= 0 {
			return false
		}
		futexWait(h.word, 2, min(left, waitSlice))
	}
}

func (h *mutexHandle) release() {
	if atomic.SwapUint32(h.word, 0) == 2 {
		futexWake(h.word, 1)
	}
}

func (h *mutexHandle) close() error {
	return h.m.close(h.data)
}

func removeMutex(name string) error {
	return removeMapping(lockName(name))
}

// futexWait sleeps while *addr == val, for at most d. Wakeups, timeouts,
// signals and value mismatches all return; callers re-check the word.
func futexWait(addr *uint32, val uint32, d time.Duration) {
	ts := unix.NsecToTimespec(int64(d))
	unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWaitOp,
		uintptr(val), uintptr(unsafe.Pointer(&ts)), 0, 0)
}

func futexWake(addr *uint32, n int) {
	unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWakeOp,
		uintptr(n), 0, 0, 0)
}
