// File: network/socket.go
// Author: momentics <momentics@gmail.com>
//
// Socket handle ownership and blocking mode shared by all socket kinds.

package network

import (
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
)

type socketKind uint8

const (
	kindTCP socketKind = iota
	kindUDP
)

// noCopy trips go vet's copylocks check for types that own a descriptor.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Socket owns at most one OS socket handle. The zero value is closed and
// blocking. Sockets must not be copied after first use.
type Socket struct {
	noCopy      noCopy
	fd          uintptr
	open        bool
	nonBlocking bool
	lastErr     error
}

var _ api.Selectable = (*Socket)(nil)

// RawFD returns the OS handle, or api.InvalidFD when none is open.
func (s *Socket) RawFD() uintptr {
	if !s.open {
		return api.InvalidFD
	}
	return s.fd
}

// IsOpen reports whether the socket holds an OS handle.
func (s *Socket) IsOpen() bool { return s.open }

// SetBlocking applies the mode to the open handle and remembers it for
// handles created later.
func (s *Socket) SetBlocking(blocking bool) {
	s.nonBlocking = !blocking
	if s.open {
		if err := sysSetBlocking(s.fd, blocking); err != nil {
			zap.L().Warn("network: failed to change blocking mode",
				zap.Uintptr("fd", s.fd), zap.Bool("blocking", blocking), zap.Error(err))
		}
	}
}

// IsBlocking reports the remembered blocking mode.
func (s *Socket) IsBlocking() bool { return !s.nonBlocking }

// LastError returns why the socket last refused an argument or a peer's
// data with StatusError, or nil. OS failures are not recorded.
func (s *Socket) LastError() error { return s.lastErr }

func (s *Socket) fail(err error) api.Status {
	s.lastErr = err
	return api.StatusError
}

// Close releases the handle. Closing a closed socket is a no-op.
func (s *Socket) Close() error {
	if !s.open {
		return nil
	}
	fd := s.fd
	s.fd, s.open = 0, false
	return sysClose(fd)
}

// create opens a handle of the given kind unless one is already open.
func (s *Socket) create(kind socketKind) error {
	if s.open {
		return nil
	}
	fd, err := sysSocket(kind)
	if err != nil {
		zap.L().Error("network: failed to create socket", zap.Error(err))
		return err
	}
	s.adopt(fd, kind)
	return nil
}

// adopt takes ownership of fd and applies the remembered options.
func (s *Socket) adopt(fd uintptr, kind socketKind) {
	s.fd, s.open = fd, true
	if err := sysSetBlocking(fd, !s.nonBlocking); err != nil {
		zap.L().Warn("network: failed to apply blocking mode", zap.Uintptr("fd", fd), zap.Error(err))
	}
	if err := sysConfigure(fd, kind); err != nil {
		zap.L().Warn("network: failed to set socket options", zap.Uintptr("fd", fd), zap.Error(err))
	}
}

func (s *Socket) localPort() uint16 {
	if !s.open {
		return 0
	}
	_, port, err := sysLocalAddr(s.fd)
	if err != nil {
		return 0
	}
	return port
}
