// File: network/tcp.go
// Author: momentics <momentics@gmail.com>
//
// TCP stream socket with length-prefixed packet framing.

package network

import (
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/pool"
)

// MaxPacketSize bounds the payload length accepted from a stream peer.
const MaxPacketSize = 64 << 20

// headerSize is the length of the big-endian u32 packet prefix.
const headerSize = 4

// retainLimit caps the receive buffer kept between packets.
const retainLimit = 1 << 20

// TCPSocket is a connected stream socket.
//
// SendPacket and ReceivePacket frame packets as [u32 length][payload].
// In non-blocking mode a frame that was partly written is kept by the
// socket and resumed when the same packet is passed again. Passing another
// packet first completes the pending frame, and the new packet reports
// StatusNotReady until that frame is out. A frame that was partly read is
// accumulated across ReceivePacket calls.
type TCPSocket struct {
	Socket
	chunk int

	out        []byte
	outSent    int
	outPending bool
	outPacket  *packet.Packet

	inHeader  [headerSize]byte
	inHeaderN int
	in        []byte
}

// NewTCPSocket returns a closed, blocking stream socket.
func NewTCPSocket() *TCPSocket { return &TCPSocket{} }

// SetChunkSize bounds the bytes moved by each send or receive syscall.
// Zero removes the bound.
func (s *TCPSocket) SetChunkSize(n int) {
	if n < 0 {
		n = 0
	}
	s.chunk = n
}

// LocalPort returns the bound local port, or 0 when not connected.
func (s *TCPSocket) LocalPort() uint16 { return s.localPort() }

// RemoteAddress returns the peer address, or None when not connected.
func (s *TCPSocket) RemoteAddress() IPAddress {
	if !s.open {
		return None
	}
	addr, _, err := sysRemoteAddr(s.fd)
	if err != nil {
		return None
	}
	return FromUint32(addr)
}

// RemotePort returns the peer port, or 0 when not connected.
func (s *TCPSocket) RemotePort() uint16 {
	if !s.open {
		return 0
	}
	_, port, err := sysRemoteAddr(s.fd)
	if err != nil {
		return 0
	}
	return port
}

// Connect opens a connection to addr:port, dropping any previous one.
//
// With a positive timeout a blocking socket connects in non-blocking mode,
// waits up to timeout for completion and restores blocking mode. A
// non-blocking socket returns StatusNotReady while the connection is in
// progress; completion is observed as write readiness on a Selector.
func (s *TCPSocket) Connect(addr IPAddress, port uint16, timeout time.Duration) api.Status {
	s.Disconnect()
	if !addr.IsValid() {
		zap.L().Warn("network: connect to invalid address", zap.Uint16("port", port))
		return api.StatusError
	}
	if err := s.create(kindTCP); err != nil {
		return api.StatusError
	}

	if timeout <= 0 || s.nonBlocking {
		if err := sysConnect(s.fd, addr.Uint32(), port); err != nil {
			return s.connectFailed(addr, port, err)
		}
		return api.StatusDone
	}

	if err := sysSetBlocking(s.fd, false); err != nil {
		zap.L().Warn("network: failed to change blocking mode", zap.Error(err))
	}
	defer func() {
		if s.open {
			_ = sysSetBlocking(s.fd, true)
		}
	}()

	err := sysConnect(s.fd, addr.Uint32(), port)
	if err == nil {
		return api.StatusDone
	}
	if errorStatus(err) != api.StatusNotReady {
		return s.connectFailed(addr, port, err)
	}
	ready, err := sysWait(s.fd, api.EventWrite, timeout)
	if err != nil {
		return s.connectFailed(addr, port, err)
	}
	if !ready {
		zap.L().Debug("network: connect timed out",
			zap.Stringer("addr", addr), zap.Uint16("port", port), zap.Duration("timeout", timeout))
		s.Disconnect()
		return api.StatusError
	}
	if err := sysSocketError(s.fd); err != nil {
		return s.connectFailed(addr, port, err)
	}
	return api.StatusDone
}

func (s *TCPSocket) connectFailed(addr IPAddress, port uint16, err error) api.Status {
	st := errorStatus(err)
	if st == api.StatusNotReady {
		return st
	}
	zap.L().Debug("network: connect failed",
		zap.Stringer("addr", addr), zap.Uint16("port", port), zap.Error(err))
	s.Disconnect()
	return st
}

// Disconnect closes the connection and drops pending packet state.
func (s *TCPSocket) Disconnect() {
	s.resetOut()
	s.resetIn()
	_ = s.Socket.Close()
}

// Close is Disconnect reporting the close error.
func (s *TCPSocket) Close() error {
	s.resetOut()
	s.resetIn()
	return s.Socket.Close()
}

// Send writes data and returns the number of bytes accepted. A blocking
// socket writes everything unless the peer fails. A non-blocking socket
// returns StatusPartial when only part of data was accepted; the caller
// resumes from the returned count.
func (s *TCPSocket) Send(data []byte) (int, api.Status) {
	if !s.open {
		return 0, api.StatusError
	}
	sent := 0
	for sent < len(data) {
		end := len(data)
		if s.chunk > 0 && end-sent > s.chunk {
			end = sent + s.chunk
		}
		n, err := sysSend(s.fd, data[sent:end])
		sent += n
		if err != nil {
			st := errorStatus(err)
			if st == api.StatusNotReady && sent > 0 {
				return sent, api.StatusPartial
			}
			return sent, st
		}
	}
	return sent, api.StatusDone
}

// Receive reads at most len(buf) bytes with one syscall. A closed peer is
// reported as StatusDisconnected.
func (s *TCPSocket) Receive(buf []byte) (int, api.Status) {
	if !s.open || len(buf) == 0 {
		return 0, api.StatusError
	}
	if s.chunk > 0 && len(buf) > s.chunk {
		buf = buf[:s.chunk]
	}
	n, err := sysRecv(s.fd, buf)
	if err != nil {
		return 0, errorStatus(err)
	}
	if n == 0 {
		return 0, api.StatusDisconnected
	}
	return n, api.StatusDone
}

// SendPacket writes p as one length-prefixed frame. StatusDone means the
// whole frame of p was written. After StatusPartial pass the same,
// unmodified p again to resume.
func (s *TCPSocket) SendPacket(p *packet.Packet) api.Status {
	if s.outPending && s.outPacket != p {
		switch st := s.flushOut(); st {
		case api.StatusDone:
		case api.StatusPartial, api.StatusNotReady:
			return api.StatusNotReady
		default:
			return st
		}
	}
	if !s.outPending {
		if p.Size() > MaxPacketSize {
			return s.fail(tooLarge("network: packet too large to send", p.Size()))
		}
		s.out = binary.BigEndian.AppendUint32(s.out[:0], uint32(p.Size()))
		s.out = append(s.out, p.Data()...)
		s.outSent = 0
		s.outPending = true
		s.outPacket = p
	}
	return s.flushOut()
}

// flushOut writes what is left of the pending frame.
func (s *TCPSocket) flushOut() api.Status {
	n, st := s.Send(s.out[s.outSent:])
	s.outSent += n
	switch st {
	case api.StatusDone:
		s.resetOut()
		return api.StatusDone
	case api.StatusNotReady, api.StatusPartial:
		if s.outSent == 0 {
			s.resetOut()
			return api.StatusNotReady
		}
		return api.StatusPartial
	default:
		s.resetOut()
		return st
	}
}

// ReceivePacket reads one frame into p. p is cleared first and filled only
// when the status is StatusDone.
func (s *TCPSocket) ReceivePacket(p *packet.Packet) api.Status {
	p.Clear()
	for s.inHeaderN < headerSize {
		n, st := s.Receive(s.inHeader[s.inHeaderN:])
		s.inHeaderN += n
		if st != api.StatusDone {
			return s.receiveFailed(st)
		}
	}

	size := int(binary.BigEndian.Uint32(s.inHeader[:]))
	if size > MaxPacketSize {
		s.resetIn()
		return s.fail(tooLarge("network: peer announced oversized packet", size))
	}

	if len(s.in) < size {
		chunks := pool.Chunks()
		buf := chunks.GetBuffer()
		defer chunks.PutBuffer(buf)
		for len(s.in) < size {
			want := min(size-len(s.in), len(*buf))
			n, st := s.Receive((*buf)[:want])
			s.in = append(s.in, (*buf)[:n]...)
			if st != api.StatusDone {
				return s.receiveFailed(st)
			}
		}
	}

	p.Reset(s.in)
	s.resetIn()
	return api.StatusDone
}

func tooLarge(msg string, size int) error {
	err := api.NewError(api.ErrCodeProtocol, msg).
		WithContext("size", size).
		WithContext("max", MaxPacketSize)
	zap.L().Warn(msg, zap.Int("size", size), zap.Int("max", MaxPacketSize))
	return err
}

func (s *TCPSocket) receiveFailed(st api.Status) api.Status {
	if st != api.StatusNotReady {
		s.resetIn()
	}
	return st
}

func (s *TCPSocket) resetOut() {
	s.outSent = 0
	s.outPending = false
	s.outPacket = nil
	if cap(s.out) > retainLimit {
		s.out = nil
	}
}

func (s *TCPSocket) resetIn() {
	s.inHeaderN = 0
	s.in = s.in[:0]
	if cap(s.in) > retainLimit {
		s.in = nil
	}
}
