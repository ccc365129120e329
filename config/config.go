// Package config defines the runtime configuration for the minesweeper
// server and its play-mode client, and validates it.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	mserr "minesweeper/internal/errors"
)

// Config holds every tuneable for one process.
type Config struct {
	// ── Game ─────────────────────────────────────────────────────────
	Port      int  // TCP listen port; 0 picks a free one
	Debug     bool // explosions do not disconnect
	Width     int
	Height    int
	SizeGiven bool   // --size was supplied explicitly
	BoardFile string // bomb layout; overrides Width/Height

	// ── Sessions ─────────────────────────────────────────────────────
	Timeout time.Duration // idle timeout per line; 0 disables

	// ── SSH front door ───────────────────────────────────────────────
	SSHPort        int    // 0 disables
	SSHHostKeyPath string // PEM private key; empty generates one

	// ── Play mode ────────────────────────────────────────────────────
	Host       string // set by positional args; non-empty selects play mode
	RemotePort int

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	ConfigFile string
	DryRun     bool
}

// PlayMode reports whether the process connects to a server instead of
// running one.
func (c *Config) PlayMode() bool { return c.Host != "" }

// ── Size spec ────────────────────────────────────────────────────────

var sizeRe = regexp.MustCompile(`^([0-9]+),([0-9]+)$`)

// ParseSize accepts "WIDTH,HEIGHT" with both parts positive integers
// and at most [MaxCells] cells in total.
func ParseSize(spec string) (width, height int, err error) {
	m := sizeRe.FindStringSubmatch(spec)
	if m == nil {
		return 0, 0, &mserr.ConfigError{
			Field:   "size",
			Value:   spec,
			Message: "expected WIDTH,HEIGHT",
			Hint:    "for example --size 10,10",
		}
	}
	width, werr := strconv.Atoi(m[1])
	height, herr := strconv.Atoi(m[2])
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, &mserr.ConfigError{
			Field:   "size",
			Value:   spec,
			Message: "width and height must be positive integers",
		}
	}
	if width > MaxCells/height {
		return 0, 0, &mserr.ConfigError{
			Field:   "size",
			Value:   spec,
			Message: fmt.Sprintf("board may have at most %d cells", MaxCells),
		}
	}
	return width, height, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Problems come back as *errors.ConfigError.
func (c *Config) Validate() error {
	if c.PlayMode() {
		if c.RemotePort < 1 || c.RemotePort > MaxPort {
			return &mserr.ConfigError{
				Field:   "port",
				Value:   c.RemotePort,
				Message: fmt.Sprintf("server port must be 1-%d", MaxPort),
				Hint:    "usage: minesweeper <host> <port>",
			}
		}
		return nil
	}

	if c.Port < 0 || c.Port > MaxPort {
		return &mserr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: fmt.Sprintf("must be 0-%d", MaxPort),
		}
	}
	if c.BoardFile != "" && c.SizeGiven {
		return &mserr.ConfigError{
			Field:   "size",
			Message: "--size and --file are mutually exclusive",
			Hint:    "the board file already fixes the dimensions",
		}
	}
	if c.BoardFile == "" && (c.Width <= 0 || c.Height <= 0) {
		return &mserr.ConfigError{
			Field:   "size",
			Value:   fmt.Sprintf("%d,%d", c.Width, c.Height),
			Message: "width and height must be positive",
		}
	}
	if c.BoardFile == "" && c.Width > MaxCells/c.Height {
		return &mserr.ConfigError{
			Field:   "size",
			Value:   fmt.Sprintf("%d,%d", c.Width, c.Height),
			Message: fmt.Sprintf("board may have at most %d cells", MaxCells),
		}
	}
	if c.SSHPort < 0 || c.SSHPort > MaxPort {
		return &mserr.ConfigError{
			Field:   "ssh-port",
			Value:   c.SSHPort,
			Message: fmt.Sprintf("must be 0-%d", MaxPort),
		}
	}
	if c.SSHPort != 0 && c.SSHPort == c.Port {
		return &mserr.ConfigError{
			Field:   "ssh-port",
			Value:   c.SSHPort,
			Message: "must differ from --port",
		}
	}
	if c.SSHHostKeyPath != "" && c.SSHPort == 0 {
		return &mserr.ConfigError{
			Field:   "ssh-host-key",
			Value:   c.SSHHostKeyPath,
			Message: "has no effect without the SSH listener",
			Hint:    "add --ssh-port <port>",
		}
	}
	if c.Timeout < 0 {
		return &mserr.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout,
			Message: "must not be negative",
		}
	}
	return nil
}
