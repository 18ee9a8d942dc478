// File: cmd/meltool/app.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/control"
	"github.com/momentics/melcomm/network"
)

// app carries what every command needs.
type app struct {
	cfg        *control.Config
	configPath string
	clock      clock.Clock
	out        io.Writer
	metrics    *control.MetricsRegistry
	probes     *control.DebugProbes
}

func newApp(cfg *control.Config, clk clock.Clock, out io.Writer) *app {
	a := &app{
		cfg:     cfg,
		clock:   clk,
		out:     out,
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(a.probes)
	control.RegisterMetricsProbe(a.probes, "metrics", a.metrics)
	a.probes.RegisterProbe("config", func() any { return *a.cfg })
	return a
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "share":
		return a.share(ctx, args)
	case "net":
		return a.net(ctx, args)
	case "bridge":
		return a.bridge(ctx, args)
	case "serve":
		return a.serve(ctx, args)
	case "local-ip":
		fmt.Fprintln(a.out, network.LocalAddress())
		return nil
	case "info":
		a.info()
		return nil
	default:
		return usageError("unknown command %q", cmd)
	}
}

// watchConfig applies log level edits of the config file while a long
// running command is up.
func (a *app) watchConfig() {
	if a.configPath == "" {
		return
	}
	control.RegisterReloadHook(control.LogLevelHook)
	if err := control.WatchConfig(a.configPath); err != nil {
		zap.L().Warn("meltool: config watch disabled", zap.Error(err))
	}
}

func (a *app) info() {
	state := a.probes.DumpState()
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s: %+v\n", k, state[k])
	}
}

// flagSet is a subcommand's flags. Parsing stops at the first positional
// argument so negative values are not taken for flags.
type flagSet struct {
	*pflag.FlagSet
	name string
}

func newFlags(name string) *flagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	return &flagSet{FlagSet: fs, name: name}
}

func parseFlags(fs *flagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError("%s: %v", fs.name, err)
	}
	return nil
}

func parseValues(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, usageError("bad value %q", s)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
