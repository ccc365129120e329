package core

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/ssh"

	"minesweeper/internal/capability"
	mserr "minesweeper/internal/errors"
	"minesweeper/internal/metrics"
	"minesweeper/internal/session"
	"minesweeper/internal/transport"
	"minesweeper/util"
)

// ServeMode runs the shared game: it accepts players on a TCP port
// (and optionally an SSH port) and serves each on its own goroutine
// until the context is cancelled.
type ServeMode struct {
	Address    string // ":port"
	SSHAddress string // ":port"; used only when SSH is set
	SSH        *transport.SSHServer

	Capability  capability.Capability
	Metrics     *metrics.Collector
	Timeout     time.Duration // idle timeout per player; 0 disables
	GracePeriod time.Duration
	Logger      *util.Logger

	nextID atomic.Uint64
}

// Run listens and serves until ctx is done or accepting fails.  On
// the way out every open session is closed and Run waits up to
// GracePeriod for the handlers to return.
func (m *ServeMode) Run(ctx context.Context) error {
	if m.Metrics == nil {
		m.Metrics = metrics.New()
	}

	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return mserr.Wrap("listen", m.Address, err)
	}
	defer ln.Close()

	var sshLn net.Listener
	if m.SSH != nil {
		sshLn, err = net.Listen("tcp", m.SSHAddress)
		if err != nil {
			return mserr.Wrap("listen", m.SSHAddress, err)
		}
		defer sshLn.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if sshLn != nil {
		m.Logger.Info("serving over ssh on %s", sshLn.Addr())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.SSH.Serve(ctx, sshLn, m.serveSSH); err != nil {
				m.Logger.Error("%v", err)
			}
		}()
	}

	m.Logger.Info("listening on %s", ln.Addr())

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	runErr := m.acceptLoop(ctx, ln, &wg)

	cancel()
	m.drain(&wg)
	m.Logger.Verbose("metrics: %s", m.Metrics.JSON())
	return runErr
}

func (m *ServeMode) acceptLoop(ctx context.Context, ln net.Listener, wg *sync.WaitGroup) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return mserr.Wrap("accept", ln.Addr().String(), err)
			}
		}

		id := m.nextID.Add(1)
		players := m.Metrics.PlayerJoined()
		m.Logger.Verbose("player %d connected from %s (%d playing)", id, conn.RemoteAddr(), players)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer m.Metrics.PlayerLeft()
			m.serveConn(ctx, id, conn, players)
		}()
	}
}

func (m *ServeMode) serveConn(ctx context.Context, id uint64, conn net.Conn, players int64) {
	sess := session.NewPlayer(id, conn, players, m.Logger)
	sess.IdleTimeout = m.Timeout
	defer sess.Close()

	if err := m.Capability.Handle(ctx, sess); err != nil {
		m.Logger.Error("player %d: %v", id, err)
	}
}

// serveSSH is the SSH server's channel handler.  SSH players share
// the player counter and the board with TCP players.
func (m *ServeMode) serveSSH(ctx context.Context, ch ssh.Channel, remote net.Addr) {
	id := m.nextID.Add(1)
	players := m.Metrics.PlayerJoined()
	defer m.Metrics.PlayerLeft()
	m.Logger.Verbose("player %d connected over ssh from %s (%d playing)", id, remote, players)

	sess := session.NewTerminal(id, remote.String(), ch, players, m.Logger)
	if err := m.Capability.Handle(ctx, sess); err != nil {
		m.Logger.Error("player %d: %v", id, err)
	}
}

// drain waits for every handler, giving up after the grace period.
func (m *ServeMode) drain(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := m.GracePeriod
	if grace <= 0 {
		grace = 5 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		m.Logger.Warn("%d sessions still open after %v", m.Metrics.Players(), grace)
	}
}

// String describes the listening setup, for dry runs.
func (m *ServeMode) String() string {
	if m.SSH != nil {
		return fmt.Sprintf("serve tcp %s, ssh %s", m.Address, m.SSHAddress)
	}
	return fmt.Sprintf("serve tcp %s", m.Address)
}
