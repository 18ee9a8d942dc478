// File: server/options.go
// Author: momentics <momentics@gmail.com>
//
// Functional options for the packet server.

package server

import "github.com/momentics/melcomm/control"

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithMiddleware attaches middleware in FIFO order.
func WithMiddleware(mw ...Middleware) ServerOption {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithMetrics counts peers and packets into mr.
func WithMetrics(mr *control.MetricsRegistry) ServerOption {
	return func(s *Server) {
		s.metrics = mr
	}
}

// WithConnectHook is called after a peer is accepted.
func WithConnectHook(fn func(*Peer)) ServerOption {
	return func(s *Server) {
		s.onConnect = fn
	}
}

// WithDisconnectHook is called after a peer is dropped.
func WithDisconnectHook(fn func(*Peer)) ServerOption {
	return func(s *Server) {
		s.onDisconnect = fn
	}
}
