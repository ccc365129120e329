package util

import (
	"context"
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the standard buffer size for relay I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// BidirectionalCopy shuffles data between a server connection and a
// local reader/writer pair (the player's terminal) until the server
// side is done or the context is cancelled.
//
// It does not wait for the local reader: a terminal read cannot be
// interrupted, so that goroutine ends on its next read or write.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverDone := make(chan error, 1)
	localDone := make(chan error, 1)

	// server → terminal
	go func() {
		serverDone <- copyPooled(w, conn)
		cancel()
	}()

	// terminal → server
	go func() {
		err := copyPooled(conn, r)
		// Half-close so the server sees EOF and ends the session, but
		// keep reading whatever it still has to say.
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		localDone <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes
	err := <-serverDone

	select {
	case lerr := <-localDone:
		if !isHarmless(lerr) {
			return lerr
		}
	default:
	}
	if !isHarmless(err) {
		return err
	}
	return nil
}

func copyPooled(dst io.Writer, src io.Reader) error {
	buf := GetBuf()
	defer PutBuf(buf)
	_, err := io.CopyBuffer(dst, src, *buf)
	return err
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
