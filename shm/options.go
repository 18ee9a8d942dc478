// File: shm/options.go
// Author: momentics <momentics@gmail.com>

package shm

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultLockTimeout bounds how long NamedMutex.Lock waits for the holder.
const DefaultLockTimeout = 100 * time.Millisecond

type options struct {
	persistent  bool
	lockTimeout time.Duration
	clock       clock.Clock
}

func defaultOptions() options {
	return options{
		lockTimeout: DefaultLockTimeout,
		clock:       clock.New(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures Open and NewNamedMutex.
type Option func(*options)

// WithPersistent keeps a POSIX region in the namespace after its last
// handle closes. Windows mappings always live only as long as a handle.
func WithPersistent(persistent bool) Option {
	return func(o *options) { o.persistent = persistent }
}

// WithLockTimeout sets the NamedMutex wait bound. Non-positive values
// select DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			d = DefaultLockTimeout
		}
		o.lockTimeout = d
	}
}

// WithClock sets the clock measuring NamedMutex deadlines.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}
