// File: cmd/meltool/main.go
// Author: momentics <momentics@gmail.com>
//
// meltool inspects and drives MelShare regions, MelNet endpoints and the
// packet server from the command line.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/momentics/melcomm/control"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

const usageText = `usage: meltool [global flags] <command> [args]

commands:
  share write|read|watch|msg|rm   MelShare access
  net send|recv|demo              MelNet endpoint
  bridge                          forward MelNet data into a MelShare
  serve                           run the TCP packet server
  local-ip                        print the primary local IPv4 address
  info                            dump runtime probes

global flags:
`

// errUsage marks errors caused by bad command lines.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return errors.Wrapf(errUsage, format, args...)
}

// run parses global flags, loads the configuration, sets up logging and
// dispatches the command. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("meltool", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "", "path to YAML config file")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: console or json")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	v := control.NewViper()
	if err := control.ReadInto(v, *configPath); err != nil {
		fmt.Fprintln(stderr, "meltool: failed to load config:", err)
		return 1
	}
	_ = v.BindPFlag("log.level", fs.Lookup("log-level"))
	_ = v.BindPFlag("log.format", fs.Lookup("log-format"))
	cfg, err := control.Decode(v)
	if err != nil {
		fmt.Fprintln(stderr, "meltool: invalid config:", err)
		return 1
	}
	logger, err := control.SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, "meltool: failed to setup logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	a := newApp(cfg, clock.New(), stdout)
	a.configPath = v.ConfigFileUsed()
	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(stderr, "meltool:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
