// Package main implements the places CLI and HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/adeilh/go-places/config"
	"github.com/adeilh/go-places/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

const usage = `usage: places [-config file] [-verbose] <command> [args]

commands:
  serve                                   run the HTTP API
  seed <file> [-limit N]                  enrich and store places listed in a JSON file
  search [-name] [-address] [-min-rating] [-exact]
                                          search stored places
  insert [-yes] <name> <location>         look up and store one place
  drop-all [-collection name]             remove every record of a collection`

type command func(ctx context.Context, env *environment, args []string) error

var commands = map[string]command{
	"serve":    serveCmd,
	"seed":     seedCmd,
	"search":   searchCmd,
	"insert":   insertCmd,
	"drop-all": dropAllCmd,
}

// environment carries the process streams and the loaded configuration.
type environment struct {
	cfg    config.Config
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	build  func(context.Context) (*components, error)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("places", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprintln(stderr, usage) }
	configPath := fs.String("config", "", "path to a TOML or YAML config file")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "places: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath, config.LoadOptions{})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: stderr})
	defer func() { _ = logger.Sync() }()

	env := &environment{
		cfg:    cfg,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	env.build = func(ctx context.Context) (*components, error) { return build(ctx, env.cfg, env.logger) }

	if err := cmd(ctx, env, fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintln(stderr, err)
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "places %s: %v\n", fs.Arg(0), err)
		return 1
	}
	return 0
}
