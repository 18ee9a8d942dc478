// File: network/selector.go
// Author: momentics <momentics@gmail.com>
//
// Readiness multiplexing over a set of sockets.

package network

import (
	"time"

	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/reactor"
)

// Infinite makes Selector.Wait block until a socket is ready.
const Infinite = time.Duration(-1)

// Selector waits for readiness on many sockets at once. Interest is read
// readiness unless Watch asks for more. A Selector is not safe for
// concurrent use.
type Selector struct {
	poller  reactor.Poller
	err     error
	sockets map[api.Selectable]uintptr
	ready   map[uintptr]api.EventType
	events  []reactor.Event
}

// NewSelector creates an empty selector. When the platform poller is
// unavailable the failure is logged once, reported by Err and every Wait
// returns false.
func NewSelector() *Selector {
	p, err := reactor.NewPoller()
	if err != nil {
		zap.L().Error("network: selector unavailable", zap.Error(err))
	}
	return &Selector{
		poller:  p,
		err:     err,
		sockets: make(map[api.Selectable]uintptr),
		ready:   make(map[uintptr]api.EventType),
	}
}

// Err returns the construction failure, if any.
func (s *Selector) Err() error { return s.err }

// Add watches sock for read readiness.
func (s *Selector) Add(sock api.Selectable) { s.Watch(sock, api.EventRead) }

// Watch sets the interest for sock, adding it when not yet watched.
func (s *Selector) Watch(sock api.Selectable, events api.EventType) {
	if s.poller == nil {
		return
	}
	fd := sock.RawFD()
	if fd == api.InvalidFD {
		zap.L().Warn("network: cannot watch a socket without a handle")
		return
	}
	if old, ok := s.sockets[sock]; ok {
		if old == fd {
			if err := s.poller.Modify(fd, events); err != nil {
				zap.L().Warn("network: selector modify failed", zap.Uintptr("fd", fd), zap.Error(err))
			}
			return
		}
		_ = s.poller.Unregister(old)
	}
	if err := s.poller.Register(fd, events); err != nil {
		zap.L().Warn("network: selector register failed", zap.Uintptr("fd", fd), zap.Error(err))
		delete(s.sockets, sock)
		return
	}
	s.sockets[sock] = fd
}

// Remove stops watching sock. It accepts sockets that were closed after
// being added.
func (s *Selector) Remove(sock api.Selectable) {
	fd, ok := s.sockets[sock]
	if !ok {
		return
	}
	if s.poller != nil {
		_ = s.poller.Unregister(fd)
	}
	delete(s.sockets, sock)
	delete(s.ready, fd)
}

// Clear removes every socket.
func (s *Selector) Clear() {
	for sock := range s.sockets {
		s.Remove(sock)
	}
	clear(s.ready)
}

// Len returns the number of watched sockets.
func (s *Selector) Len() int { return len(s.sockets) }

// Wait blocks until at least one watched socket is ready or the timeout
// expires, and reports whether any socket is ready. A negative timeout
// waits forever; zero polls.
func (s *Selector) Wait(timeout time.Duration) bool {
	clear(s.ready)
	if s.poller == nil {
		return false
	}
	if want := max(len(s.sockets), 1); len(s.events) < want {
		s.events = make([]reactor.Event, want)
	}
	n, err := s.poller.Wait(s.events, timeout)
	if err != nil {
		zap.L().Warn("network: selector wait failed", zap.Error(err))
		return false
	}
	for _, ev := range s.events[:n] {
		s.ready[ev.Fd] |= ev.Events
	}
	return n > 0
}

// IsReady reports whether sock became ready in the last Wait.
func (s *Selector) IsReady(sock api.Selectable) bool {
	return s.Events(sock) != 0
}

// Events returns the readiness of sock observed by the last Wait.
func (s *Selector) Events(sock api.Selectable) api.EventType {
	fd, ok := s.sockets[sock]
	if !ok {
		return 0
	}
	return s.ready[fd]
}

// Ready returns the sockets that became ready in the last Wait.
func (s *Selector) Ready() []api.Selectable {
	var out []api.Selectable
	for sock, fd := range s.sockets {
		if s.ready[fd] != 0 {
			out = append(out, sock)
		}
	}
	return out
}

// Close releases the poller. The selector is unusable afterwards.
func (s *Selector) Close() error {
	if s.poller == nil {
		return nil
	}
	clear(s.sockets)
	clear(s.ready)
	p := s.poller
	s.poller = nil
	return p.Close()
}
