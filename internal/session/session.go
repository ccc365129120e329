// Package session represents a single connection lifecycle, binding a
// connection to line-oriented I/O and the context a capability needs.
//
// Capabilities never care whether a player arrived over raw TCP or an
// SSH channel; both are read a line at a time and written as text.
package session

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	mserr "minesweeper/internal/errors"
	"minesweeper/util"
)

// MaxLineLen bounds one line from a player, terminator included.
const MaxLineLen = 4096

// LineReader yields one line at a time with the terminator removed.
type LineReader interface {
	ReadLine() (string, error)
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID      uint64
	Remote  string
	Players int64 // players connected when this one joined, itself included

	Conn   net.Conn // nil for SSH channels
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger

	// IdleTimeout, when positive, bounds the wait for each line on a
	// net.Conn session.
	IdleTimeout time.Duration

	lines     LineReader
	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

// New creates a Session bound to a connection and a local I/O pair.
// Used by play mode, where the player's terminal sits on the other
// side of the relay.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	s := &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
		closer: conn,
	}
	if conn != nil {
		s.Remote = conn.RemoteAddr().String()
	}
	if stdin != nil {
		s.lines = &bufLines{r: bufio.NewReader(stdin)}
	}
	return s
}

// NewPlayer creates a game Session reading commands from, and writing
// replies to, conn itself.
func NewPlayer(id uint64, conn net.Conn, players int64, logger *util.Logger) *Session {
	s := New(conn, conn, conn, logger)
	s.ID = id
	s.Players = players
	return s
}

// NewTerminal creates a game Session over an interactive channel (an
// SSH session).  Lines are edited and echoed by a terminal emulation;
// rw is closed when the session is.
func NewTerminal(id uint64, remote string, rw io.ReadWriteCloser, players int64, logger *util.Logger) *Session {
	t := newTerminalLines(rw)
	return &Session{
		ID:      id,
		Remote:  remote,
		Players: players,
		Stdin:   rw,
		Stdout:  t,
		Logger:  logger,
		lines:   t,
		closer:  rw,
	}
}

// ReadLine blocks for the next line from the player.  It returns
// io.EOF once the peer has gone away.
func (s *Session) ReadLine() (string, error) {
	if s.Conn != nil && s.IdleTimeout > 0 {
		s.Conn.SetReadDeadline(time.Now().Add(s.IdleTimeout)) //nolint:errcheck
	}
	return s.lines.ReadLine()
}

// WriteString sends text to the player exactly as given.
func (s *Session) WriteString(text string) error {
	if text == "" {
		return nil
	}
	if _, err := io.WriteString(s.Stdout, text); err != nil {
		return mserr.Wrap("write", s.Remote, err)
	}
	return nil
}

// Close tears the underlying connection down.  It is safe to call more
// than once and from any goroutine; only the first call has effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

// ── line readers ─────────────────────────────────────────────────────

// bufLines reads LF-terminated lines, dropping an optional CR.  A final
// unterminated line is still delivered before io.EOF.  Lines longer
// than [MaxLineLen] fail with [mserr.ErrLineTooLong].
type bufLines struct {
	r *bufio.Reader
}

func (b *bufLines) ReadLine() (string, error) {
	var line []byte
	for {
		frag, err := b.r.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > MaxLineLen {
			return "", mserr.ErrLineTooLong
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && (err != io.EOF || len(line) == 0) {
			return "", err
		}
		s := strings.TrimSuffix(string(line), "\n")
		return strings.TrimSuffix(s, "\r"), nil
	}
}
