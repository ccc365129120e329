package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"minesweeper/internal/capability"
	mserr "minesweeper/internal/errors"
	"minesweeper/internal/retry"
	"minesweeper/internal/session"
	"minesweeper/internal/transport"
	"minesweeper/util"
)

// PlayMode dials a game server and relays the local terminal to it.
type PlayMode struct {
	Dialer     transport.Dialer
	Backoff    *retry.Backoff
	Capability capability.Capability
	Address    string
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *PlayMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *PlayMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the server, retrying refused connections, then hands the
// connection to the capability.  The dialer is closed when Run returns.
func (m *PlayMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	stdin, stdout := m.stdin(), m.stdout()
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		restore, tin, tout, err := localTerminal(f, stdout)
		if err != nil {
			return err
		}
		defer restore()
		stdin, stdout = tin, tout
	}

	sess := session.New(conn, stdin, stdout, m.Logger)
	return m.Capability.Handle(ctx, sess)
}

func (m *PlayMode) dial(ctx context.Context) (net.Conn, error) {
	b := m.Backoff
	if b == nil {
		b = retry.DefaultBackoff()
	}
	b.Retryable = mserr.IsRetryable
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Logger.Verbose("attempt %d: %v; retrying in %v", attempt, err, wait.Round(time.Millisecond))
	}

	var conn net.Conn
	err := b.Do(ctx, func(_ int) error {
		c, err := m.Dialer.Dial(ctx, "tcp", m.Address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

// String describes the target, for dry runs.
func (m *PlayMode) String() string {
	return "play " + m.Address
}

// ── local terminal ───────────────────────────────────────────────────

// localTerminal puts the controlling terminal in raw mode and runs a
// line editor on it, so the player gets echo and editing while the
// server still receives whole CRLF-terminated lines.  Ctrl-D ends the
// input stream.
func localTerminal(f *os.File, out io.Writer) (restore func(), in io.Reader, w io.Writer, err error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("raw terminal: %w", err)
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, out}, "")

	pr, pw := io.Pipe()
	go func() {
		for {
			line, err := t.ReadLine()
			if err != nil {
				pw.Close()
				return
			}
			if _, err := io.WriteString(pw, line+"\r\n"); err != nil {
				return
			}
		}
	}()

	restore = func() {
		pr.Close()
		term.Restore(fd, state) //nolint:errcheck
	}
	return restore, pr, crStripper{t}, nil
}

// crStripper drops carriage returns before text reaches a
// term.Terminal, which supplies its own.
type crStripper struct {
	w io.Writer
}

func (c crStripper) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, strings.ReplaceAll(string(p), "\r", "")); err != nil {
		return 0, err
	}
	return len(p), nil
}
