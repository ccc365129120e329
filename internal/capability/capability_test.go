package capability

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"minesweeper/internal/board"
	"minesweeper/internal/metrics"
	"minesweeper/internal/protocol"
	"minesweeper/internal/session"
	"minesweeper/util"
)

// TestRelay_BidirectionalCopy verifies Relay shuttles data via the
// session's I/O endpoints.
func TestRelay_BidirectionalCopy(t *testing.T) {
	// Set up a local TCP echo server.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn) // echo
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	input := bytes.NewBufferString("look\r\n")
	output := &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess := session.New(conn, input, output, util.NewLogger(0))
	if err := (&Relay{}).Handle(ctx, sess); err != nil {
		t.Fatalf("Relay.Handle: %v", err)
	}

	if got := output.String(); got != "look\r\n" {
		t.Errorf("output = %q, want %q", got, "look\r\n")
	}
}

// ── Game ─────────────────────────────────────────────────────────────

// player drives one end of a pipe the way a telnet user would.
type player struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (p *player) send(line string) {
	p.t.Helper()
	if _, err := p.conn.Write([]byte(line + "\r\n")); err != nil {
		p.t.Fatalf("send %q: %v", line, err)
	}
}

func (p *player) expect(lines ...string) {
	p.t.Helper()
	for _, want := range lines {
		got, err := p.r.ReadString('\n')
		if err != nil {
			p.t.Fatalf("reading %q: %v", want, err)
		}
		if got != want+"\r\n" {
			p.t.Fatalf("got %q, want %q", got, want+"\r\n")
		}
	}
}

// startGame runs a Game over a pipe on a 2x2 board with a single bomb
// at (1,1).
func startGame(t *testing.T, debug bool, m *metrics.Collector) (*player, <-chan error, context.CancelFunc) {
	t.Helper()
	b, err := board.Load(strings.NewReader("2 2\n0 0\n0 1\n"))
	if err != nil {
		t.Fatal(err)
	}

	srv, cli := net.Pipe()
	sess := session.NewPlayer(1, srv, 1, util.NewLogger(0))
	g := &Game{Board: b, Debug: debug, Metrics: m}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Handle(ctx, sess)
		sess.Close() //nolint:errcheck
	}()

	t.Cleanup(func() {
		cancel()
		cli.Close()
	})
	cli.SetDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck
	return &player{t: t, conn: cli, r: bufio.NewReader(cli)}, done, cancel
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("game did not end")
		return nil
	}
}

func TestGame_Session(t *testing.T) {
	m := metrics.New()
	p, done, _ := startGame(t, false, m)

	p.expect(strings.TrimSuffix(protocol.Welcome(2, 2, 1), "\r\n"))

	p.send("look")
	p.expect("- -", "- -")

	p.send("flag 0 1")
	p.expect("- -", "F -")

	p.send("dig 0 0")
	p.expect("1 -", "F -")

	p.send("deflag 0 1")
	p.expect("1 -", "- -")

	p.send("help me")
	p.expect(strings.Split(strings.TrimSuffix(protocol.HelpText, "\r\n"), "\r\n")...)

	p.send("bye")
	if err := waitDone(t, done); err != nil {
		t.Errorf("Handle: %v", err)
	}

	snap := m.Snapshot()
	if snap.Commands != 6 || snap.Digs != 1 || snap.Flags != 1 || snap.Deflags != 1 {
		t.Errorf("metrics: %+v", snap)
	}
}

func TestGame_ExplosionEndsSession(t *testing.T) {
	m := metrics.New()
	p, done, _ := startGame(t, false, m)
	p.expect(strings.TrimSuffix(protocol.Welcome(2, 2, 1), "\r\n"))

	p.send("dig 1 1")
	p.expect("BOOM!")

	if err := waitDone(t, done); err != nil {
		t.Errorf("Handle: %v", err)
	}
	if _, err := p.r.ReadString('\n'); err == nil {
		t.Error("connection should be closed after BOOM")
	}
	if m.Explosions() != 1 {
		t.Errorf("explosions = %d, want 1", m.Explosions())
	}
}

func TestGame_DebugSurvivesExplosion(t *testing.T) {
	p, done, _ := startGame(t, true, nil)
	p.expect(strings.TrimSuffix(protocol.Welcome(2, 2, 1), "\r\n"))

	p.send("dig 1 1")
	p.expect("BOOM!")

	// With the bomb defused the reveal spread over the whole board.
	p.send("dig 0 0")
	p.expect("   ", "   ")

	p.send("bye")
	if err := waitDone(t, done); err != nil {
		t.Errorf("Handle: %v", err)
	}
}

func TestGame_PeerHangUp(t *testing.T) {
	p, done, _ := startGame(t, false, nil)
	p.expect(strings.TrimSuffix(protocol.Welcome(2, 2, 1), "\r\n"))

	p.conn.Close()
	if err := waitDone(t, done); err != nil {
		t.Errorf("hang-up should end quietly, got %v", err)
	}
}

func TestGame_ContextCancelClosesSession(t *testing.T) {
	p, done, cancel := startGame(t, false, nil)
	p.expect(strings.TrimSuffix(protocol.Welcome(2, 2, 1), "\r\n"))

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Errorf("cancel should end quietly, got %v", err)
	}
}
