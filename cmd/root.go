// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"minesweeper/config"
	"minesweeper/internal/core"
	mserr "minesweeper/internal/errors"
	"minesweeper/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X minesweeper/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// output receives help and version text; tests swap it out.
var output io.Writer = os.Stderr //nolint:gochecknoglobals

// Execute parses args and runs the server, or play mode when a host and
// port are given.
func Execute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("minesweeper", flag.ContinueOnError)
	fs.SetOutput(output)
	config.RegisterFlags(fs)

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(output, "minesweeper %s\n", version)
		return nil
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	if cfg.ConfigFile != "" {
		logger.Verbose("settings read from %s", cfg.ConfigFile)
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Fprintf(output, "configuration OK: %v\n", describe(mode))
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts nothing (serve) or "<host> <port>" (play).
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		return nil
	case 2:
		port, err := strconv.Atoi(remaining[1])
		if err != nil {
			return &mserr.ConfigError{
				Field:   "port",
				Value:   remaining[1],
				Message: "server port must be a number",
			}
		}
		cfg.Host = remaining[0]
		cfg.RemotePort = port
		return nil
	default:
		return fmt.Errorf("expected no arguments or <host> <port>, got %d (use --help for usage)", len(remaining))
	}
}

func describe(m core.Mode) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", m)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(output, `Minesweeper v%s

A multiplayer Minesweeper server for telnet and SSH clients.

Usage:
  minesweeper [options]                        Serve a random board
  minesweeper -f <layout> [options]            Serve a board from a file
  minesweeper [options] <host> <port>          Play on a remote server

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(output, `
Environment:
  Every option can also be set as %s_<OPTION>, e.g. %s_SSH_PORT=2222.

Examples:
  minesweeper --size 20,15 --debug             Debug game on port %d
  minesweeper -p 5000 -f board.txt             Fixed layout on port 5000
  minesweeper --ssh-port 2222                  Also accept ssh -p 2222 host
  minesweeper localhost %d                   Join a running game
`, config.EnvPrefix, config.EnvPrefix, config.DefaultPort, config.DefaultPort)
}
