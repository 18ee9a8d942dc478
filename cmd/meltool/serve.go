// File: cmd/meltool/serve.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/melcomm/packet"
	"github.com/momentics/melcomm/server"
)

func (a *app) serve(ctx context.Context, args []string) error {
	fs := newFlags("serve")
	bind := fs.String("bind", a.cfg.Server.Bind, "listen address")
	port := fs.Uint16P("port", "p", a.cfg.Server.Port, "listen port")
	broadcast := fs.Bool("broadcast", false, "relay every packet to all peers instead of echoing")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	sc := a.cfg.Server
	sc.Bind, sc.Port = *bind, *port
	cfg, err := server.ConfigFrom(sc)
	if err != nil {
		return err
	}

	var s *server.Server
	handler := server.HandlerFunc(func(peer *server.Peer, p *packet.Packet) {
		if *broadcast {
			s.Broadcast(p)
			return
		}
		if err := s.Send(peer, p); err != nil {
			zap.L().Warn("meltool: echo dropped", zap.Uint64("peer", peer.ID()), zap.Error(err))
		}
	})
	s, err = server.New(cfg, handler,
		server.WithMetrics(a.metrics),
		server.WithMiddleware(server.RecoveryMiddleware, server.LoggingMiddleware))
	if err != nil {
		return err
	}
	defer s.Close()
	a.watchConfig()

	for ctx.Err() == nil {
		if _, err := s.Poll(100 * time.Millisecond); err != nil {
			return err
		}
	}
	zap.L().Info("meltool: server stopped", zap.Any("metrics", a.metrics.GetSnapshot()))
	return nil
}
