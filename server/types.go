// File: server/types.go
// Author: momentics <momentics@gmail.com>

package server

import (
	"github.com/eapache/queue"
	"github.com/pkg/errors"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/pool"
)

// Config holds the server parameters.
type Config struct {
	Bind       network.IPAddress // listen address
	Port       uint16            // listen port, 0 picks one
	MaxPeers   int               // connections beyond this are closed on accept
	QueueLimit int               // outbound packets buffered per peer
}

// DefaultConfig returns defaults matching control.Default().Server.
func DefaultConfig() *Config {
	return &Config{
		Bind:       network.Any,
		Port:       55000,
		MaxPeers:   64,
		QueueLimit: 256,
	}
}

// ConfigFrom converts the loaded configuration section.
func ConfigFrom(c control.ServerConfig) (*Config, error) {
	addr, err := network.ResolveIPAddress(c.Bind)
	if err != nil {
		return nil, err
	}
	if c.MaxPeers <= 0 || c.QueueLimit <= 0 {
		return nil, errors.Wrap(api.ErrInvalidArgument, "server: peer and queue limits must be positive")
	}
	return &Config{Bind: addr, Port: c.Port, MaxPeers: c.MaxPeers, QueueLimit: c.QueueLimit}, nil
}

// Peer is one accepted connection.
type Peer struct {
	id   uint64
	sock *network.TCPSocket
	addr network.IPAddress
	port uint16
	out  *queue.Queue // of *packet.Packet, head may be partly written
}

// ID returns a number unique for the life of the server.
func (p *Peer) ID() uint64 { return p.id }

// Address returns the remote address.
func (p *Peer) Address() network.IPAddress { return p.addr }

// Port returns the remote port.
func (p *Peer) Port() uint16 { return p.port }

// Queued returns the number of packets waiting to be written.
func (p *Peer) Queued() int { return p.out.Length() }

// enqueue queues a pooled copy of pkt.
func (p *Peer) enqueue(pkt *packet.Packet) {
	c := pool.GetPacket()
	c.Reset(pkt.Data())
	p.out.Add(c)
}

// discard returns every queued packet to the pool.
func (p *Peer) discard() {
	for p.out.Length() > 0 {
		pool.PutPacket(p.out.Remove().(*packet.Packet))
	}
}
