// Package transport provides network connection establishment for
// both ends of the game.  Transports handle the "how" of data
// movement (plain TCP, or SSH sessions on the server side)
// independent of what happens over the connection, which is the
// capability layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.  Play mode uses it to
// reach a server.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer.
	// Stateless dialers return nil.
	Close() error
}
