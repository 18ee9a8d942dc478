// File: cmd/meltool/net.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/affinity"
	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/melnet"
	"github.com/momentics/melcomm/melshare"
	"github.com/momentics/melcomm/network"
)

type endpointFlags struct {
	local, remote *uint16
	host          *string
}

func (a *app) endpointFlags(fs *flagSet) endpointFlags {
	return endpointFlags{
		local:  fs.Uint16P("local", "l", a.cfg.Net.LocalPort, "local port"),
		remote: fs.Uint16P("remote", "r", a.cfg.Net.RemotePort, "remote port"),
		host:   fs.StringP("ip", "i", a.cfg.Net.RemoteHost, "remote host"),
	}
}

func (a *app) openNet(ef endpointFlags, blocking bool) (*melnet.MelNet, error) {
	remote, err := network.ResolveIPAddress(*ef.host)
	if err != nil {
		return nil, err
	}
	return melnet.New(*ef.local, *ef.remote, remote,
		melnet.WithBlocking(blocking),
		melnet.WithInboxSize(a.cfg.Net.InboxSize),
		melnet.WithMetrics(a.metrics))
}

func (a *app) net(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("net send|recv|demo")
	}
	sub := args[0]
	fs := newFlags("net " + sub)
	ef := a.endpointFlags(fs)
	message := fs.BoolP("message", "m", false, "send or receive a text message instead of data")
	request := fs.Bool("request", false, "send: send a request record")
	count := fs.Int("count", 1, "recv: records to wait for")
	timeout := fs.Duration("timeout", 5*time.Second, "recv: give up after this long, 0 waits forever")
	rate := fs.Float64("rate", 100, "demo: records per second")
	duration := fs.Duration("duration", 10*time.Second, "demo: how long to send")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	switch sub {
	case "send":
		mn, err := a.openNet(ef, true)
		if err != nil {
			return err
		}
		defer mn.Close()
		var st api.Status
		switch {
		case *request:
			st = mn.Request()
		case *message:
			st = mn.SendMessage(strings.Join(fs.Args(), " "))
		default:
			vals, err := parseValues(fs.Args())
			if err != nil {
				return err
			}
			st = mn.SendData(vals)
		}
		if st != api.StatusDone {
			return errors.Errorf("send: %s", st)
		}
		return nil

	case "recv":
		mn, err := a.openNet(ef, false)
		if err != nil {
			return err
		}
		defer mn.Close()
		if *timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, *timeout)
			defer cancel()
		}
		tk := a.clock.Ticker(time.Millisecond)
		defer tk.Stop()
		return receiveLoop(ctx, tk, mn, *message, *count, func(line string) {
			fmt.Fprintln(a.out, line)
		})

	case "demo":
		if *rate <= 0 {
			return usageError("rate must be positive")
		}
		mn, err := a.openNet(ef, true)
		if err != nil {
			return err
		}
		defer mn.Close()
		ctx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()
		tk := a.clock.Ticker(time.Duration(float64(time.Second) / *rate))
		defer tk.Stop()
		return demoLoop(ctx, tk, a.clock, mn)

	default:
		return usageError("unknown net command %q", sub)
	}
}

// receiveLoop polls a non-blocking endpoint on every tick and emits each
// record until count records arrived or ctx is done.
func receiveLoop(ctx context.Context, tk *clock.Ticker, mn *melnet.MelNet, messages bool, count int, emit func(string)) error {
	got := 0
	for {
		for {
			var line string
			var st api.Status
			if messages {
				line, st = mn.ReceiveMessage()
			} else {
				var vals []float64
				vals, st = mn.ReceiveData()
				line = formatValues(vals)
			}
			if st == api.StatusNotReady {
				break
			}
			if st != api.StatusDone {
				return errors.Errorf("receive: %s", st)
			}
			emit(line)
			got++
			if count > 0 && got >= count {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.Errorf("receive: timed out after %d of %d records", got, count)
			}
			return nil
		case <-tk.C:
		}
	}
}

// demoLoop sends a sine and a triangle wave with a one second period on
// every tick.
func demoLoop(ctx context.Context, tk *clock.Ticker, clk clock.Clock, mn *melnet.MelNet) error {
	start := clk.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
		}
		t := clk.Since(start).Seconds()
		phase := t - math.Floor(t)
		tri := 4*math.Abs(phase-0.5) - 1
		if st := mn.SendData([]float64{math.Sin(2 * math.Pi * t), tri}); st != api.StatusDone {
			zap.L().Warn("meltool: demo send failed", zap.Stringer("status", st))
		}
	}
}

func (a *app) bridge(ctx context.Context, args []string) error {
	fs := newFlags("bridge")
	ef := a.endpointFlags(fs)
	name := fs.StringP("name", "n", a.cfg.Share.Name, "share to write received data into")
	interval := fs.Duration("interval", time.Millisecond, "polling period")
	cpu := fs.Int("cpu", -1, "pin the polling loop to this CPU")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *cpu >= 0 {
		unpin, err := affinity.Pin(*cpu)
		if err != nil {
			return err
		}
		defer unpin()
	}
	mn, err := a.openNet(ef, false)
	if err != nil {
		return err
	}
	defer mn.Close()
	sh, err := melshare.New(*name, api.OpenOrCreate,
		melshare.WithSize(a.cfg.Share.Size),
		melshare.WithPersistent(a.cfg.Share.Persistent),
		melshare.WithLockTimeout(a.cfg.Share.LockTimeout))
	if err != nil {
		return err
	}
	defer sh.Close()

	a.watchConfig()
	zap.L().Info("meltool: bridge running",
		zap.Stringer("local_ip", network.LocalAddress()),
		zap.Uint16("local_port", mn.LocalPort()),
		zap.String("remote", *ef.host), zap.Uint16("remote_port", *ef.remote),
		zap.String("share", *name))
	tk := a.clock.Ticker(*interval)
	defer tk.Stop()
	return bridgeLoop(ctx, tk, mn, sh)
}

// bridgeLoop copies the newest data record into sh and message records
// into its message area, and answers requests with the share's current
// values.
func bridgeLoop(ctx context.Context, tk *clock.Ticker, mn *melnet.MelNet, sh *melshare.MelShare) error {
	for {
		var latest []float64
		fresh := false
		for {
			vals, st := mn.ReceiveData()
			if st != api.StatusDone {
				break
			}
			latest, fresh = vals, true
		}
		if fresh {
			if err := sh.Write(latest); err != nil {
				return err
			}
		}
		for {
			msg, st := mn.ReceiveMessage()
			if st != api.StatusDone {
				break
			}
			if err := sh.WriteMessage(msg); err != nil {
				zap.L().Warn("meltool: message not stored", zap.Error(err))
			}
		}
		for mn.CheckRequest() {
			vals, err := sh.Read()
			if err != nil {
				return err
			}
			mn.SendData(vals)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
		}
	}
}
