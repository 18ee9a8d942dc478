// File: network/udp.go
// Author: momentics <momentics@gmail.com>
//
// UDP datagram socket.

package network

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/pool"
)

// MaxDatagramSize is the largest UDP payload over IPv4.
const MaxDatagramSize = 65507

// UDPSocket sends and receives datagrams. A packet maps to exactly one
// datagram without a length prefix.
type UDPSocket struct {
	Socket
}

// NewUDPSocket returns a closed, blocking datagram socket.
func NewUDPSocket() *UDPSocket { return &UDPSocket{} }

// Bind binds to addr:port, closing any previous handle. Port 0 picks an
// ephemeral port. None and Broadcast are rejected.
func (s *UDPSocket) Bind(port uint16, addr IPAddress) api.Status {
	s.Unbind()
	if !addr.IsValid() || addr == Broadcast {
		zap.L().Warn("network: cannot bind to address", zap.Stringer("addr", addr), zap.Uint16("port", port))
		return api.StatusError
	}
	if err := s.create(kindUDP); err != nil {
		return api.StatusError
	}
	if err := sysBind(s.fd, addr.Uint32(), port); err != nil {
		zap.L().Warn("network: bind failed", zap.Stringer("addr", addr), zap.Uint16("port", port), zap.Error(err))
		_ = s.Close()
		return api.StatusError
	}
	return api.StatusDone
}

// Unbind releases the handle.
func (s *UDPSocket) Unbind() { _ = s.Close() }

// LocalPort returns the bound port, or 0 when unbound.
func (s *UDPSocket) LocalPort() uint16 { return s.localPort() }

// Send transmits data as one datagram. Payloads over MaxDatagramSize are
// rejected before any system call.
func (s *UDPSocket) Send(data []byte, addr IPAddress, port uint16) api.Status {
	if len(data) > MaxDatagramSize {
		err := errors.Wrapf(api.ErrDatagramTooLarge, "network: %d bytes, max %d", len(data), MaxDatagramSize)
		zap.L().Warn("network: datagram rejected", zap.Error(err))
		return s.fail(err)
	}
	if !addr.IsValid() {
		return s.fail(errors.Wrap(api.ErrInvalidArgument, "network: send to invalid address"))
	}
	if err := s.create(kindUDP); err != nil {
		return api.StatusError
	}
	if err := sysSendTo(s.fd, data, addr.Uint32(), port); err != nil {
		return errorStatus(err)
	}
	return api.StatusDone
}

// Receive reads one datagram into buf. A datagram longer than buf is
// truncated by the OS.
func (s *UDPSocket) Receive(buf []byte) (int, IPAddress, uint16, api.Status) {
	if !s.open || len(buf) == 0 {
		return 0, None, 0, api.StatusError
	}
	n, addr, port, err := sysRecvFrom(s.fd, buf)
	if err != nil {
		return 0, None, 0, errorStatus(err)
	}
	return n, FromUint32(addr), port, api.StatusDone
}

// SendPacket transmits p's bytes as one datagram.
func (s *UDPSocket) SendPacket(p *packet.Packet, addr IPAddress, port uint16) api.Status {
	return s.Send(p.Data(), addr, port)
}

// ReceivePacket reads one datagram into p. p is cleared first and filled
// only when the status is StatusDone.
func (s *UDPSocket) ReceivePacket(p *packet.Packet) (IPAddress, uint16, api.Status) {
	p.Clear()
	datagrams := pool.Datagrams()
	buf := datagrams.GetBuffer()
	defer datagrams.PutBuffer(buf)
	n, addr, port, st := s.Receive(*buf)
	if st == api.StatusDone {
		p.Reset((*buf)[:n])
	}
	return addr, port, st
}
