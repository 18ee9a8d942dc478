// File: melnet/melnet.go
// Author: momentics <momentics@gmail.com>
//
// Typed record channel over a UDP socket.

package melnet

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
	"github.com/momentics/melcomm/packet"
)

// Kind tags the record carried by a datagram.
type Kind uint8

const (
	KindData Kind = iota + 1
	KindMessage
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindMessage:
		return "message"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// metric keys
const (
	MetricSent      = "melnet.sent"
	MetricReceived  = "melnet.received"
	MetricMalformed = "melnet.malformed"
	MetricEvicted   = "melnet.evicted"
	MetricErrors    = "melnet.errors"
)

// MelNet is one end of a record channel. It is not safe for concurrent
// use.
type MelNet struct {
	sock       *network.UDPSocket
	remote     network.IPAddress
	remotePort uint16
	inboxes    [KindRequest + 1]*inbox
	tx, rx     *packet.Packet
	metrics    *control.MetricsRegistry
}

// New binds localPort and targets remote:remotePort.
func New(localPort, remotePort uint16, remote network.IPAddress, opts ...Option) (*MelNet, error) {
	o := options{blocking: true, inboxSize: DefaultInboxSize, bind: network.Any}
	for _, opt := range opts {
		opt(&o)
	}
	if !remote.IsValid() {
		return nil, errors.Wrap(api.ErrInvalidArgument, "melnet: remote address")
	}
	m := &MelNet{
		sock:       network.NewUDPSocket(),
		remote:     remote,
		remotePort: remotePort,
		tx:         packet.New(256),
		rx:         packet.New(256),
		metrics:    o.metrics,
	}
	for k := KindData; k <= KindRequest; k++ {
		m.inboxes[k] = newInbox(o.inboxSize)
	}
	if st := m.sock.Bind(localPort, o.bind); st != api.StatusDone {
		return nil, errors.Errorf("melnet: bind %s:%d: %s", o.bind, localPort, st)
	}
	m.sock.SetBlocking(o.blocking)
	zap.L().Debug("melnet: endpoint ready",
		zap.Uint16("local_port", m.sock.LocalPort()),
		zap.Stringer("remote", remote), zap.Uint16("remote_port", remotePort))
	return m, nil
}

// LocalPort returns the bound port.
func (m *MelNet) LocalPort() uint16 { return m.sock.LocalPort() }

// SetRemote retargets sends.
func (m *MelNet) SetRemote(remote network.IPAddress, port uint16) {
	m.remote, m.remotePort = remote, port
}

// SetBlocking switches receive mode.
func (m *MelNet) SetBlocking(blocking bool) { m.sock.SetBlocking(blocking) }

// IsBlocking reports the receive mode.
func (m *MelNet) IsBlocking() bool { return m.sock.IsBlocking() }

// Close releases the socket. Parked records are discarded.
func (m *MelNet) Close() error { return m.sock.Close() }

// SendData sends one data record.
func (m *MelNet) SendData(values []float64) api.Status {
	m.begin(KindData)
	m.tx.AppendFloat64s(values)
	return m.send(KindData)
}

// SendMessage sends one message record.
func (m *MelNet) SendMessage(text string) api.Status {
	m.begin(KindMessage)
	m.tx.AppendString(text)
	return m.send(KindMessage)
}

// Request sends an empty request record.
func (m *MelNet) Request() api.Status {
	m.begin(KindRequest)
	return m.send(KindRequest)
}

// ReceiveData returns the next data record. In non-blocking mode it
// returns StatusNotReady when none is available.
func (m *MelNet) ReceiveData() ([]float64, api.Status) {
	v, st := m.receive(KindData)
	if st != api.StatusDone {
		return nil, st
	}
	return v.([]float64), st
}

// ReceiveMessage returns the next message record.
func (m *MelNet) ReceiveMessage() (string, api.Status) {
	v, st := m.receive(KindMessage)
	if st != api.StatusDone {
		return "", st
	}
	return v.(string), st
}

// CheckRequest reports whether a request record arrived. In blocking
// mode it waits for one.
func (m *MelNet) CheckRequest() bool {
	_, st := m.receive(KindRequest)
	return st == api.StatusDone
}

// Pending returns the number of parked records of kind k.
func (m *MelNet) Pending(k Kind) int {
	if k < KindData || k > KindRequest {
		return 0
	}
	return m.inboxes[k].len()
}

func (m *MelNet) begin(k Kind) {
	m.tx.Clear()
	m.tx.AppendUint8(uint8(k))
}

func (m *MelNet) send(k Kind) api.Status {
	st := m.sock.SendPacket(m.tx, m.remote, m.remotePort)
	if st == api.StatusDone {
		m.metrics.Add(MetricSent+"."+k.String(), 1)
	} else if st != api.StatusNotReady {
		m.metrics.Add(MetricErrors, 1)
	}
	return st
}

// receive serves kind k from its inbox, then reads datagrams until one of
// kind k arrives, parking the others.
func (m *MelNet) receive(k Kind) (any, api.Status) {
	if v, ok := m.inboxes[k].pop(); ok {
		return v, api.StatusDone
	}
	for {
		_, _, st := m.sock.ReceivePacket(m.rx)
		if st != api.StatusDone {
			if st != api.StatusNotReady {
				m.metrics.Add(MetricErrors, 1)
			}
			return nil, st
		}
		got, v, ok := decode(m.rx)
		if !ok {
			m.metrics.Add(MetricMalformed, 1)
			zap.L().Debug("melnet: dropping malformed datagram", zap.Int("size", m.rx.Size()))
			continue
		}
		m.metrics.Add(MetricReceived+"."+got.String(), 1)
		if got == k {
			return v, api.StatusDone
		}
		if m.inboxes[got].push(v) {
			m.metrics.Add(MetricEvicted, 1)
		}
	}
}

// decode parses one record. The whole datagram must be consumed.
func decode(p *packet.Packet) (Kind, any, bool) {
	k := Kind(p.ExtractUint8())
	var v any
	switch k {
	case KindData:
		v = p.ExtractFloat64s()
	case KindMessage:
		v = p.ExtractString()
	case KindRequest:
		v = struct{}{}
	default:
		return 0, nil, false
	}
	if !p.IsValid() || !p.EndOfPacket() {
		return 0, nil, false
	}
	return k, v, true
}
