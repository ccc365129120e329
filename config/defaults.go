package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config files and environment variables.

const (
	// DefaultPort is the TCP port the game listens on.
	DefaultPort = 4444

	// DefaultSize is the width and height of a randomly generated board.
	DefaultSize = 10

	// MaxCells caps width×height for a random board.
	MaxCells = 1 << 24

	// MaxPort is the highest valid TCP port.
	MaxPort = 65535

	// DefaultDialTimeout bounds each play-mode connection attempt.
	DefaultDialTimeout = 10 * time.Second

	// DefaultDialAttempts is how many times play mode tries to reach
	// the server before giving up.
	DefaultDialAttempts = 5

	// DefaultGracePeriod is how long shutdown waits for sessions to
	// finish after their connections are closed.
	DefaultGracePeriod = 5 * time.Second

	// EnvPrefix namespaces every environment variable, e.g.
	// MINESWEEPER_PORT or MINESWEEPER_SSH_PORT.
	EnvPrefix = "MINESWEEPER"
)
