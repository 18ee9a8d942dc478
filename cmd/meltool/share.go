// File: cmd/meltool/share.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/melcomm/api"
	"github.com/momentics/melcomm/melshare"
)

// openShare opens a share for a one-shot command. Shares opened by the
// tool are persistent since the process exits right after; "share rm"
// removes them.
func (a *app) openShare(name string, size int, mode api.OpenMode) (*melshare.MelShare, error) {
	sh, err := melshare.New(name, mode,
		melshare.WithSize(size),
		melshare.WithPersistent(true),
		melshare.WithLockTimeout(a.cfg.Share.LockTimeout))
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (a *app) share(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("share write|read|watch|msg|rm")
	}
	sub := args[0]
	fs := newFlags("share " + sub)
	name := fs.StringP("name", "n", a.cfg.Share.Name, "share name")
	size := fs.Int("size", a.cfg.Share.Size, "region size for new shares")
	interval := fs.Duration("interval", 100*time.Millisecond, "watch: sampling period")
	count := fs.Int("count", 0, "watch: stop after this many updates, 0 runs until interrupted")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	switch sub {
	case "write":
		vals, err := parseValues(fs.Args())
		if err != nil {
			return err
		}
		sh, err := a.openShare(*name, *size, api.OpenOrCreate)
		if err != nil {
			return err
		}
		defer sh.Close()
		return sh.Write(vals)

	case "read":
		sh, err := a.openShare(*name, 0, api.OpenOnly)
		if err != nil {
			return err
		}
		defer sh.Close()
		vals, err := sh.Read()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, formatValues(vals))
		return nil

	case "msg":
		mode := api.OpenOnly
		if fs.NArg() > 0 {
			mode = api.OpenOrCreate
		}
		sh, err := a.openShare(*name, *size, mode)
		if err != nil {
			return err
		}
		defer sh.Close()
		if fs.NArg() > 0 {
			return sh.WriteMessage(strings.Join(fs.Args(), " "))
		}
		msg, err := sh.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil

	case "watch":
		if *interval <= 0 {
			return usageError("interval must be positive")
		}
		sh, err := a.openShare(*name, *size, api.OpenOrCreate)
		if err != nil {
			return err
		}
		defer sh.Close()
		tk := a.clock.Ticker(*interval)
		defer tk.Stop()
		return watchShare(ctx, tk, sh, *count, func(vs []float64) {
			fmt.Fprintln(a.out, formatValues(vs))
		})

	case "rm":
		if err := melshare.Remove(*name); err != nil {
			return errors.Wrapf(err, "remove share %q", *name)
		}
		return nil

	default:
		return usageError("unknown share command %q", sub)
	}
}

// watchShare samples sh on every tick and emits the values whenever they
// change. It returns when ctx is done or after count updates when count is
// positive.
func watchShare(ctx context.Context, tk *clock.Ticker, sh *melshare.MelShare, count int, emit func([]float64)) error {
	var last []float64
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
		}
		vals, err := sh.Read()
		if err != nil {
			return err
		}
		if slices.Equal(vals, last) {
			continue
		}
		last = vals
		emit(vals)
		seen++
		zap.L().Debug("meltool: share changed", zap.String("share", sh.Name()), zap.Int("values", len(vals)))
		if count > 0 && seen >= count {
			return nil
		}
	}
}
