// File: shm/mutex.go
// Author: momentics <momentics@gmail.com>
//
// Named cross-process mutex with a bounded wait.

package shm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
)

// waitSlice bounds each blocking wait so deadlines from the configured
// clock are re-read regularly.
const waitSlice = 2 * time.Millisecond

// NamedMutex serializes processes, and goroutines, that open the same name.
// It is safe for concurrent use.
type NamedMutex struct {
	name     string
	timeout  time.Duration
	clock    clock.Clock
	h        *mutexHandle
	err      error
	timeouts atomic.Uint64
}

var _ sync.Locker = (*NamedMutex)(nil)

// NewNamedMutex opens or creates the mutex called name. The returned mutex
// is never nil; when the platform lock could not be opened the error is
// returned here once, and Lock and Unlock do nothing.
func NewNamedMutex(name string, mode api.OpenMode, opts ...Option) (*NamedMutex, error) {
	o := applyOptions(opts)
	m := &NamedMutex{name: SanitizeName(name), timeout: o.lockTimeout, clock: o.clock}
	if m.name == "" {
		m.err = errors.Wrap(api.ErrInvalidArgument, "shm: empty mutex name")
		return m, m.err
	}
	h, err := openMutex(m.name, mode)
	if err != nil {
		m.err = err
		if !errors.Is(err, api.ErrNotMapped) {
			zap.L().Warn("shm: failed to open named mutex", zap.String("name", m.name), zap.Error(err))
		}
		return m, err
	}
	m.h = h
	return m, nil
}

// Name returns the sanitized mutex name.
func (m *NamedMutex) Name() string { return m.name }

// Err returns the error from opening the mutex.
func (m *NamedMutex) Err() error { return m.err }

// Timeouts returns how many Lock calls gave up waiting.
func (m *NamedMutex) Timeouts() uint64 { return m.timeouts.Load() }

// Lock acquires the mutex, waiting at most the lock timeout. When the wait
// expires Lock returns anyway and logs a warning, so exclusion is advisory
// against a holder that stalls or died holding the lock.
func (m *NamedMutex) Lock() {
	if m.h == nil {
		return
	}
	deadline := m.clock.Now().Add(m.timeout)
	remaining := func() time.Duration { return deadline.Sub(m.clock.Now()) }
	if m.h.acquire(remaining) {
		return
	}
	m.timeouts.Add(1)
	zap.L().Warn("shm: named mutex wait timed out, proceeding without the lock",
		zap.String("name", m.name), zap.Duration("timeout", m.timeout))
}

// Unlock releases the mutex.
func (m *NamedMutex) Unlock() {
	if m.h != nil {
		m.h.release()
	}
}

// WithLock runs fn while holding the mutex.
func (m *NamedMutex) WithLock(fn func()) {
	m.Lock()
	defer m.Unlock()
	fn()
}

// Close releases the platform lock handle.
func (m *NamedMutex) Close() error {
	if m.h == nil {
		return nil
	}
	h := m.h
	m.h = nil
	return h.close()
}

// RemoveNamedMutex deletes leftover lock state for name from the OS
// namespace.
func RemoveNamedMutex(name string) error {
	n := SanitizeName(name)
	if n == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "shm: remove mutex %q", name)
	}
	return removeMutex(n)
}

func lockName(name string) string { return name + ".lock" }
