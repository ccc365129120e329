package transport

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"

	"minesweeper/util"
)

// ChannelHandler serves one interactive SSH session.  It owns ch until
// it returns; the server then reports exit status 0 and closes it.
type ChannelHandler func(ctx context.Context, ch ssh.Channel, remote net.Addr)

// SSHServer accepts SSH connections and hands every interactive
// session channel to a handler.  Clients are not authenticated; the
// game has no notion of identity.
type SSHServer struct {
	Config *ssh.ServerConfig
	Logger *util.Logger

	wg sync.WaitGroup
}

// NewSSHServer builds a server presenting the host key at
// hostKeyPath, or a freshly generated ed25519 key when the path is
// empty.
func NewSSHServer(hostKeyPath string, logger *util.Logger) (*SSHServer, error) {
	signer, err := LoadHostKey(hostKeyPath)
	if err != nil {
		return nil, err
	}
	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)
	return &SSHServer{Config: cfg, Logger: logger}, nil
}

// LoadHostKey reads a PEM private key from path.  An empty path yields
// an ephemeral ed25519 key.
func LoadHostKey(path string) (ssh.Signer, error) {
	if path == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating host key: %w", err)
		}
		return ssh.NewSignerFromKey(priv)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		if _, ok := err.(*ssh.PassphraseMissingError); ok {
			return nil, fmt.Errorf("host key %s is encrypted; supply an unencrypted key", path)
		}
		return nil, fmt.Errorf("host key %s: %w", path, err)
	}
	return signer, nil
}

// Serve accepts connections on ln until it is closed or ctx is done.
// It returns once every connection it accepted has finished.
func (s *SSHServer) Serve(ctx context.Context, ln net.Listener, handle ChannelHandler) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	defer s.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("ssh accept: %w", err)
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn, handle)
		}()
	}
}

func (s *SSHServer) serveConn(ctx context.Context, conn net.Conn, handle ChannelHandler) {
	defer conn.Close()

	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.Config)
	if err != nil {
		s.Logger.Verbose("ssh handshake with %s: %v", conn.RemoteAddr(), err)
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sconn.Close()
		case <-done:
		}
	}()

	s.Logger.Verbose("ssh connection from %s (%s)", sconn.RemoteAddr(), sconn.ClientVersion())

	var chWG sync.WaitGroup
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "only session channels are supported") //nolint:errcheck
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			s.Logger.Verbose("ssh channel accept: %v", err)
			continue
		}
		chWG.Add(1)
		go func() {
			defer chWG.Done()
			s.serveChannel(ctx, ch, chReqs, sconn.RemoteAddr(), handle)
		}()
	}
	chWG.Wait()
}

// serveChannel answers session requests and starts the handler once
// the client asks for a shell.
func (s *SSHServer) serveChannel(ctx context.Context, ch ssh.Channel, reqs <-chan *ssh.Request, remote net.Addr, handle ChannelHandler) {
	defer ch.Close()

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		shell := false
		for req := range reqs {
			ok := false
			switch req.Type {
			case "pty-req", "env", "window-change":
				ok = true
			case "shell":
				ok = !shell
			}
			if req.WantReply {
				req.Reply(ok, nil) //nolint:errcheck
			}
			if req.Type == "shell" && ok {
				shell = true
				close(started)
			}
		}
		if !shell {
			close(finished)
		}
	}()

	select {
	case <-started:
	case <-finished:
		return
	}

	handle(ctx, ch, remote)
	status := struct{ Status uint32 }{0}
	ch.SendRequest("exit-status", false, ssh.Marshal(&status)) //nolint:errcheck
}
