package core

import (
	"fmt"

	"minesweeper/config"
	"minesweeper/internal/board"
	"minesweeper/internal/capability"
	"minesweeper/internal/metrics"
	"minesweeper/internal/retry"
	"minesweeper/internal/transport"
	"minesweeper/util"
)

// Build constructs the appropriate Mode from the given configuration.
// It is the single dispatch point between the CLI and the modes.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.PlayMode() {
		return buildPlay(cfg, logger), nil
	}
	return buildServe(cfg, logger)
}

// ── mode builders ────────────────────────────────────────────────────

func buildPlay(cfg *config.Config, logger *util.Logger) Mode {
	b := retry.DefaultBackoff()
	b.MaxAttempts = config.DefaultDialAttempts

	return &PlayMode{
		Dialer:     &transport.TCPDialer{Timeout: config.DefaultDialTimeout},
		Backoff:    b,
		Capability: &capability.Relay{},
		Address:    util.FormatAddr(cfg.Host, cfg.RemotePort),
		Logger:     logger,
	}
}

func buildServe(cfg *config.Config, logger *util.Logger) (Mode, error) {
	b, err := buildBoard(cfg)
	if err != nil {
		return nil, err
	}
	w, h := b.Dimensions()
	logger.Verbose("board %dx%d, debug=%v", w, h, cfg.Debug)

	m := metrics.New()
	mode := &ServeMode{
		Address:     util.ListenAddr(cfg.Port),
		Capability:  &capability.Game{Board: b, Debug: cfg.Debug, Metrics: m},
		Metrics:     m,
		Timeout:     cfg.Timeout,
		GracePeriod: config.DefaultGracePeriod,
		Logger:      logger,
	}

	if cfg.SSHPort != 0 {
		srv, err := transport.NewSSHServer(cfg.SSHHostKeyPath, logger)
		if err != nil {
			return nil, fmt.Errorf("ssh: %w", err)
		}
		mode.SSH = srv
		mode.SSHAddress = util.ListenAddr(cfg.SSHPort)
	}
	return mode, nil
}

// buildBoard loads the layout file when one is given, otherwise
// generates a random board of the configured size.
func buildBoard(cfg *config.Config) (*board.Board, error) {
	if cfg.BoardFile != "" {
		return board.LoadFile(cfg.BoardFile)
	}
	return board.New(cfg.Width, cfg.Height), nil
}
