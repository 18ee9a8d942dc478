// File: network/listener.go
// Author: momentics <momentics@gmail.com>
//
// TCP listening socket.

package network

import (
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
)

// TCPListener accepts stream connections.
type TCPListener struct {
	Socket
}

// NewTCPListener returns a closed, blocking listener.
func NewTCPListener() *TCPListener { return &TCPListener{} }

// Listen binds to addr:port and starts listening, closing any previous
// listening handle. Port 0 picks an ephemeral port.
func (l *TCPListener) Listen(port uint16, addr IPAddress) api.Status {
	_ = l.Close()
	if !addr.IsValid() || addr == Broadcast {
		zap.L().Warn("network: cannot listen on address", zap.Stringer("addr", addr), zap.Uint16("port", port))
		return api.StatusError
	}
	if err := l.create(kindTCP); err != nil {
		return api.StatusError
	}
	if err := sysReuseAddr(l.fd); err != nil {
		zap.L().Debug("network: SO_REUSEADDR not applied", zap.Error(err))
	}
	if err := sysBind(l.fd, addr.Uint32(), port); err != nil {
		zap.L().Warn("network: bind failed", zap.Stringer("addr", addr), zap.Uint16("port", port), zap.Error(err))
		_ = l.Close()
		return api.StatusError
	}
	if err := sysListen(l.fd); err != nil {
		zap.L().Warn("network: listen failed", zap.Uint16("port", port), zap.Error(err))
		_ = l.Close()
		return api.StatusError
	}
	return api.StatusDone
}

// LocalPort returns the listening port, or 0 when not listening.
func (l *TCPListener) LocalPort() uint16 { return l.localPort() }

// Accept waits for a connection and hands it to s, closing whatever s held.
// A non-blocking listener returns StatusNotReady when no peer is waiting.
// The accepted socket keeps s's blocking mode.
func (l *TCPListener) Accept(s *TCPSocket) api.Status {
	if !l.open {
		zap.L().Warn("network: accept on a listener that is not listening")
		return api.StatusError
	}
	fd, err := sysAccept(l.fd)
	if err != nil {
		return errorStatus(err)
	}
	s.Disconnect()
	s.adopt(fd, kindTCP)
	return api.StatusDone
}
