package session

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	mserr "minesweeper/internal/errors"
	"minesweeper/util"
)

func TestBufLines(t *testing.T) {
	r := &bufLines{r: bufio.NewReader(strings.NewReader("look\r\ndig 1 2\nflag 0 0"))}

	for _, want := range []string{"look", "dig 1 2", "flag 0 0"} {
		got, err := r.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := r.ReadLine(); err != io.EOF {
		t.Errorf("want io.EOF at end, got %v", err)
	}
}

func TestBufLines_MaxLineLen(t *testing.T) {
	fits := strings.Repeat("a", MaxLineLen-2)
	input := fits + "\r\n" + strings.Repeat("b", MaxLineLen+1) + "\n"
	r := &bufLines{r: bufio.NewReaderSize(strings.NewReader(input), 16)}

	got, err := r.ReadLine()
	if err != nil {
		t.Fatalf("line at the limit: %v", err)
	}
	if got != fits {
		t.Errorf("got %d bytes, want %d", len(got), len(fits))
	}
	if _, err := r.ReadLine(); !errors.Is(err, mserr.ErrLineTooLong) {
		t.Errorf("want ErrLineTooLong, got %v", err)
	}
}

// TestNewPlayer_UnterminatedFlood checks that a peer streaming bytes
// without a newline is cut off instead of buffered forever.
func TestNewPlayer_UnterminatedFlood(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()

	sess := NewPlayer(1, srv, 1, util.NewLogger(0))
	defer sess.Close()

	go func() {
		chunk := bytes.Repeat([]byte("x"), 1024)
		for {
			if _, err := cli.Write(chunk); err != nil {
				return
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		_, err := sess.ReadLine()
		errc <- err
	}()
	select {
	case err := <-errc:
		if !errors.Is(err, mserr.ErrLineTooLong) {
			t.Errorf("want ErrLineTooLong, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLine kept buffering an unterminated line")
	}
}

func TestNewPlayer_ReadWrite(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()

	sess := NewPlayer(7, srv, 3, util.NewLogger(0))
	defer sess.Close()

	if sess.ID != 7 || sess.Players != 3 {
		t.Errorf("ID/Players = %d/%d", sess.ID, sess.Players)
	}

	go cli.Write([]byte("look\r\n")) //nolint:errcheck
	line, err := sess.ReadLine()
	if err != nil || line != "look" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}

	done := make(chan string)
	go func() {
		buf := make([]byte, 64)
		n, _ := cli.Read(buf)
		done <- string(buf[:n])
	}()
	if err := sess.WriteString("- -\r\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if got := <-done; got != "- -\r\n" {
		t.Errorf("client read %q", got)
	}
}

func TestSession_IdleTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cli, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer cli.Close()

	srv, err := ln.Accept()
	if err != nil {
		t.Fatal(err)
	}
	sess := NewPlayer(1, srv, 1, util.NewLogger(0))
	sess.IdleTimeout = 50 * time.Millisecond
	defer sess.Close()

	start := time.Now()
	_, err = sess.ReadLine()
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("want timeout error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("idle timeout took too long")
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()

	sess := NewPlayer(1, srv, 1, util.NewLogger(0))
	if err := sess.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := sess.ReadLine(); err == nil {
		t.Error("ReadLine after Close should fail")
	}
}

// syncBuffer collects terminal output written from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewTerminal_LineEditing(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()

	out := &syncBuffer{}
	go io.Copy(out, cli) //nolint:errcheck

	sess := NewTerminal(2, "pipe", srv, 1, util.NewLogger(0))
	defer sess.Close()

	// "loox", backspace, "k", enter
	go cli.Write([]byte("loox\x7fk\r")) //nolint:errcheck
	line, err := sess.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "look" {
		t.Errorf("line = %q, want %q", line, "look")
	}

	if err := sess.WriteString("- -\r\n- -\r\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "- -\r\n- -\r\n") {
		if time.Now().After(deadline) {
			t.Fatalf("terminal output %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if strings.Contains(out.String(), "\r\r\n") {
		t.Errorf("doubled carriage return in %q", out.String())
	}
}

func TestNewTerminal_CtrlDIsEOF(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()
	go io.Copy(io.Discard, cli) //nolint:errcheck

	sess := NewTerminal(3, "pipe", srv, 1, util.NewLogger(0))
	defer sess.Close()

	go cli.Write([]byte{4}) //nolint:errcheck
	if _, err := sess.ReadLine(); err != io.EOF {
		t.Errorf("want io.EOF, got %v", err)
	}
}
