package session

import (
	"io"
	"strings"

	"golang.org/x/term"
)

// terminalLines runs a line-editing terminal over an interactive
// channel.  Output already uses CRLF; the terminal translates LF
// itself, so carriage returns are dropped before they reach it.
type terminalLines struct {
	t *term.Terminal
}

func newTerminalLines(rw io.ReadWriter) *terminalLines {
	return &terminalLines{t: term.NewTerminal(rw, "")}
}

func (tl *terminalLines) ReadLine() (string, error) {
	line, err := tl.t.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\r"), nil
}

func (tl *terminalLines) Write(p []byte) (int, error) {
	if _, err := tl.t.Write([]byte(strings.ReplaceAll(string(p), "\r", ""))); err != nil {
		return 0, err
	}
	return len(p), nil
}
