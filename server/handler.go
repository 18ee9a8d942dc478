// File: server/handler.go
// Author: momentics <momentics@gmail.com>
//
// Packet handlers and middleware chain utilities.

package server

import (
	"go.uber.org/zap"

	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/packet"
)

// Handler consumes packets read from peers. The packet is reused after
// HandlePacket returns.
type Handler interface {
	HandlePacket(peer *Peer, p *packet.Packet)
}

// HandlerFunc converts a function into a Handler.
type HandlerFunc func(peer *Peer, p *packet.Packet)

// HandlePacket calls f.
func (f HandlerFunc) HandlePacket(peer *Peer, p *packet.Packet) { f(peer, p) }

// Middleware augments a Handler.
type Middleware func(Handler) Handler

// NewHandlerChain applies middleware in order: first in slice is outermost.
func NewHandlerChain(base Handler, mw ...Middleware) Handler {
	h := base
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// LoggingMiddleware logs every packet at debug level.
func LoggingMiddleware(next Handler) Handler {
	return HandlerFunc(func(peer *Peer, p *packet.Packet) {
		zap.L().Debug("server: packet",
			zap.Uint64("peer", peer.ID()), zap.Int("size", p.Size()))
		next.HandlePacket(peer, p)
	})
}

// RecoveryMiddleware keeps a panicking handler from taking the poll loop
// down.
func RecoveryMiddleware(next Handler) Handler {
	return HandlerFunc(func(peer *Peer, p *packet.Packet) {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("server: handler panic recovered",
					zap.Uint64("peer", peer.ID()), zap.Any("panic", r))
			}
		}()
		next.HandlePacket(peer, p)
	})
}

// MetricsMiddleware counts handled packets under "server.handled".
func MetricsMiddleware(mr *control.MetricsRegistry) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(peer *Peer, p *packet.Packet) {
			mr.Add(MetricHandled, 1)
			next.HandlePacket(peer, p)
		})
	}
}
