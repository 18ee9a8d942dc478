// File: server/server.go
// Author: momentics <momentics@gmail.com>
//
// Single-goroutine multi-peer TCP packet hub driven by a Selector.

package server

import (
	"time"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/pool"
)

// metric keys
const (
	MetricPeers    = "server.peers"
	MetricAccepted = "server.accepted"
	MetricRejected = "server.rejected"
	MetricDropped  = "server.dropped"
	MetricRx       = "server.packets_in"
	MetricTx       = "server.packets_out"
	MetricOverflow = "server.queue_overflow"
	MetricHandled  = "server.handled"
)

var (
	// ErrQueueFull is returned by Send when the peer's outbound queue is at
	// its limit. The packet is not queued.
	ErrQueueFull = errors.New("server: peer queue full")
	// ErrUnknownPeer is returned for a peer that was dropped or never
	// belonged to this server.
	ErrUnknownPeer = errors.New("server: unknown peer")
)

// Server accepts peers and exchanges framed packets with them. All methods
// must be called from the goroutine that runs Poll.
type Server struct {
	cfg          *Config
	listener     *network.TCPListener
	selector     *network.Selector
	handler      Handler
	middleware   []Middleware
	metrics      *control.MetricsRegistry
	onConnect    func(*Peer)
	onDisconnect func(*Peer)

	peers  map[api.Selectable]*Peer
	nextID uint64
	in     *packet.Packet
	closed bool
}

// New listens on cfg.Bind:cfg.Port and returns a server that dispatches
// incoming packets to handler.
func New(cfg *Config, handler Handler, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if handler == nil {
		return nil, errors.Wrap(api.ErrInvalidArgument, "server: nil handler")
	}
	s := &Server{
		cfg:      cfg,
		listener: network.NewTCPListener(),
		selector: network.NewSelector(),
		peers:    make(map[api.Selectable]*Peer),
		in:       packet.New(0),
	}
	for _, o := range opts {
		o(s)
	}
	s.handler = NewHandlerChain(handler, s.middleware...)

	if err := s.selector.Err(); err != nil {
		return nil, errors.Wrap(err, "server: selector")
	}
	s.listener.SetBlocking(false)
	if st := s.listener.Listen(cfg.Port, cfg.Bind); st != api.StatusDone {
		_ = s.selector.Close()
		return nil, errors.Errorf("server: listen %s:%d: %s", cfg.Bind, cfg.Port, st)
	}
	s.selector.Add(s.listener)
	zap.L().Info("server: listening",
		zap.Stringer("addr", cfg.Bind), zap.Uint16("port", s.listener.LocalPort()))
	return s, nil
}

// Port returns the listening port.
func (s *Server) Port() uint16 { return s.listener.LocalPort() }

// Peers returns the connected peers in no particular order.
func (s *Server) Peers() []*Peer {
	out := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Poll waits up to timeout for activity, then accepts pending peers, reads
// and dispatches every complete packet and flushes writable peers. It
// returns the number of packets dispatched.
func (s *Server) Poll(timeout time.Duration) (int, error) {
	if s.closed {
		return 0, api.ErrClosed
	}
	if !s.selector.Wait(timeout) {
		return 0, nil
	}
	if s.selector.IsReady(s.listener) {
		s.acceptAll()
	}
	handled := 0
	for _, sock := range s.selector.Ready() {
		peer, ok := s.peers[sock]
		if !ok {
			continue
		}
		ev := s.selector.Events(sock)
		if ev&(api.EventRead|api.EventError) != 0 {
			n, alive := s.readAll(peer)
			handled += n
			if !alive {
				continue
			}
		}
		if ev&api.EventWrite != 0 {
			s.flush(peer)
		}
	}
	return handled, nil
}

// Run polls until stop is closed.
func (s *Server) Run(stop <-chan struct{}, interval time.Duration) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if _, err := s.Poll(interval); err != nil {
			return err
		}
	}
}

// Send queues p for peer and writes as much as the socket accepts now.
func (s *Server) Send(peer *Peer, p *packet.Packet) error {
	if s.closed {
		return api.ErrClosed
	}
	if s.peers[peer.sock] != peer {
		return ErrUnknownPeer
	}
	if peer.out.Length() >= s.cfg.QueueLimit {
		s.metrics.Add(MetricOverflow, 1)
		return ErrQueueFull
	}
	peer.enqueue(p)
	s.flush(peer)
	return nil
}

// Broadcast sends p to every peer and returns how many accepted it.
func (s *Server) Broadcast(p *packet.Packet) int {
	n := 0
	for _, peer := range s.Peers() {
		if s.Send(peer, p) == nil {
			n++
		}
	}
	return n
}

// Disconnect drops peer.
func (s *Server) Disconnect(peer *Peer) {
	if s.peers[peer.sock] == peer {
		s.drop(peer, "closed by server")
	}
}

// Close drops every peer and stops listening.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, peer := range s.Peers() {
		s.drop(peer, "server closing")
	}
	s.selector.Remove(s.listener)
	_ = s.listener.Close()
	return s.selector.Close()
}

func (s *Server) acceptAll() {
	for {
		sock := network.NewTCPSocket()
		sock.SetBlocking(false)
		st := s.listener.Accept(sock)
		if st != api.StatusDone {
			if st != api.StatusNotReady {
				zap.L().Warn("server: accept failed", zap.Stringer("status", st))
			}
			return
		}
		if len(s.peers) >= s.cfg.MaxPeers {
			zap.L().Warn("server: peer limit reached, rejecting",
				zap.Stringer("addr", sock.RemoteAddress()), zap.Int("max_peers", s.cfg.MaxPeers))
			_ = sock.Close()
			s.metrics.Add(MetricRejected, 1)
			continue
		}
		s.nextID++
		peer := &Peer{
			id:   s.nextID,
			sock: sock,
			addr: sock.RemoteAddress(),
			port: sock.RemotePort(),
			out:  queue.New(),
		}
		s.peers[sock] = peer
		s.selector.Add(sock)
		s.metrics.Add(MetricAccepted, 1)
		s.metrics.Set(MetricPeers, int64(len(s.peers)))
		zap.L().Debug("server: peer connected", zap.Uint64("peer", peer.id),
			zap.Stringer("addr", peer.addr), zap.Uint16("port", peer.port))
		if s.onConnect != nil {
			s.onConnect(peer)
		}
	}
}

// readAll dispatches every complete packet buffered for peer. It reports
// false when the peer was dropped.
func (s *Server) readAll(peer *Peer) (int, bool) {
	n := 0
	for {
		switch st := peer.sock.ReceivePacket(s.in); st {
		case api.StatusDone:
			n++
			s.metrics.Add(MetricRx, 1)
			s.handler.HandlePacket(peer, s.in)
			if s.peers[peer.sock] != peer {
				return n, false
			}
		case api.StatusNotReady:
			return n, true
		default:
			s.drop(peer, st.String())
			return n, false
		}
	}
}

// flush writes queued packets until the socket pushes back, then adjusts
// write interest.
func (s *Server) flush(peer *Peer) {
	for peer.out.Length() > 0 {
		head := peer.out.Peek().(*packet.Packet)
		switch st := peer.sock.SendPacket(head); st {
		case api.StatusDone:
			pool.PutPacket(peer.out.Remove().(*packet.Packet))
			s.metrics.Add(MetricTx, 1)
		case api.StatusNotReady, api.StatusPartial:
			s.selector.Watch(peer.sock, api.EventRead|api.EventWrite)
			return
		default:
			s.drop(peer, st.String())
			return
		}
	}
	s.selector.Watch(peer.sock, api.EventRead)
}

func (s *Server) drop(peer *Peer, reason string) {
	s.selector.Remove(peer.sock)
	delete(s.peers, peer.sock)
	_ = peer.sock.Close()
	peer.discard()
	s.metrics.Add(MetricDropped, 1)
	s.metrics.Set(MetricPeers, int64(len(s.peers)))
	zap.L().Debug("server: peer dropped", zap.Uint64("peer", peer.id), zap.String("reason", reason))
	if s.onDisconnect != nil {
		s.onDisconnect(peer)
	}
}
