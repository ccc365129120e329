package capability

import (
	"context"
	"errors"
	"os"

	mserr "minesweeper/internal/errors"
	"minesweeper/internal/metrics"
	"minesweeper/internal/protocol"
	"minesweeper/internal/session"
)

// Board is everything the game loop needs from the shared grid.
type Board interface {
	protocol.Board
	Dimensions() (width, height int)
}

// Game serves one player against the shared board: a welcome line,
// then one reply per command until the player says bye, hangs up or,
// outside debug mode, digs a bomb.
type Game struct {
	Board   Board
	Debug   bool
	Metrics *metrics.Collector
}

// Handle runs the command loop.  A peer that disconnects is a normal
// end of session and yields nil.
func (g *Game) Handle(ctx context.Context, sess *session.Session) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sess.Close() //nolint:errcheck
		case <-done:
		}
	}()

	w, h := g.Board.Dimensions()
	if err := sess.WriteString(protocol.Welcome(w, h, sess.Players)); err != nil {
		return g.ended(sess, err)
	}

	for {
		line, err := sess.ReadLine()
		if err != nil {
			return g.ended(sess, err)
		}
		g.Metrics.Command()

		cmd, resp, ok := protocol.Handle(g.Board, line)
		if ok {
			g.record(cmd, resp)
			sess.Logger.WithField("player", sess.ID).Tracef("%s", cmd)
		} else {
			sess.Logger.WithField("player", sess.ID).Tracef("unparseable %q", line)
		}

		if resp.Terminate {
			sess.Logger.Verbose("player %d said bye", sess.ID)
			return nil
		}
		if err := sess.WriteString(resp.Text); err != nil {
			return g.ended(sess, err)
		}
		if resp.Exploded && !g.Debug {
			sess.Logger.Verbose("player %d hit a bomb at %d,%d", sess.ID, cmd.X, cmd.Y)
			return nil
		}
	}
}

func (g *Game) record(cmd protocol.Command, resp protocol.Response) {
	switch cmd.Verb {
	case protocol.Dig:
		g.Metrics.Dig(resp.Exploded)
	case protocol.Flag:
		g.Metrics.Flag()
	case protocol.Deflag:
		g.Metrics.Deflag()
	}
}

// ended classifies the error that stopped a session: hang-ups and idle
// timeouts are routine, anything else is reported.
func (g *Game) ended(sess *session.Session, err error) error {
	switch {
	case mserr.IsDisconnect(err):
		sess.Logger.Verbose("player %d disconnected", sess.ID)
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		sess.Logger.Info("player %d idle, closing", sess.ID)
		return nil
	}
	g.Metrics.RecordError(err.Error())
	var ne *mserr.NetworkError
	if mserr.As(err, &ne) {
		return err
	}
	return mserr.Wrap("read", sess.Remote, err)
}
