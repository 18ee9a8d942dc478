// File: melnet/options.go
// Author: momentics <momentics@gmail.com>

package melnet

import (
	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
)

// DefaultInboxSize bounds each per-kind inbox.
const DefaultInboxSize = 16

type options struct {
	blocking  bool
	inboxSize int
	bind      network.IPAddress
	metrics   *control.MetricsRegistry
}

// Option configures New.
type Option func(*options)

// WithBlocking selects blocking (default) or non-blocking receives.
func WithBlocking(blocking bool) Option {
	return func(o *options) { o.blocking = blocking }
}

// WithInboxSize bounds how many parked records of each kind are kept.
func WithInboxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inboxSize = n
		}
	}
}

// WithBindAddress binds the local socket to addr instead of Any.
func WithBindAddress(addr network.IPAddress) Option {
	return func(o *options) { o.bind = addr }
}

// WithMetrics counts traffic into mr.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(o *options) { o.metrics = mr }
}
