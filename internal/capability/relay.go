package capability

import (
	"context"

	"minesweeper/internal/session"
	"minesweeper/util"
)

// Relay copies data bidirectionally between the server connection and
// the session's stdin/stdout.  It is the client side of play mode.
type Relay struct{}

// Handle shuttles bytes between the network connection and the local
// I/O endpoints until one side closes or the context is cancelled.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	return util.BidirectionalCopy(ctx, sess.Conn, sess.Stdin, sess.Stdout)
}
