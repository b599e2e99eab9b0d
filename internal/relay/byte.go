// Package relay implements the two bidirectional pump strategies used once
// a VLESS request header has been consumed and the destination is dialed:
// Bytes for a raw TCP client leg, Messages for a framed client leg (the
// websocket transport). Both halves are pumped concurrently and the first
// side to hit EOF half-closes its peer rather than tearing down the whole
// connection, so the other direction can keep draining in flight data. A
// peer without CloseWrite (e.g. a net.Pipe end) is closed outright instead.
package relay

import (
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/iqhive/vlessproxy/internal/connopt"
)

// Stats reports bytes moved in each direction of a relay.
type Stats struct {
	BytesIn  int64 // client -> upstream
	BytesOut int64 // upstream -> client
}

type halfCloser interface {
	CloseWrite() error
}

type flusher interface {
	Flush() error
}

// Bytes pumps data bidirectionally between a client TCP connection and an
// upstream TCP connection. clientWriter is the write half the caller
// should actually write to (typically clientConn wrapped in a
// prepend.Writer carrying the pending response header); clientConn itself
// is read from directly and used for its raw fd when the zero-copy path
// applies.
func Bytes(clientConn, upstreamConn net.Conn, clientWriter io.Writer, logger *zap.Logger) (Stats, error) {
	var stats Stats
	var wg sync.WaitGroup
	var inErr, outErr error

	wg.Add(2)

	go func() {
		defer wg.Done()
		buf := make([]byte, connopt.BufferSize())
		n, err := copyConn(upstreamConn, clientConn, buf)
		stats.BytesIn = n
		if err != nil && !isBenignRelayError(err) {
			inErr = err
		}
		if hc, ok := upstreamConn.(halfCloser); ok {
			hc.CloseWrite()
		} else {
			upstreamConn.Close()
		}
	}()

	go func() {
		defer wg.Done()
		buf := make([]byte, connopt.BufferSize())
		n, err := io.CopyBuffer(clientWriter, upstreamConn, buf)
		stats.BytesOut = n
		if err != nil && !isBenignRelayError(err) {
			outErr = err
		}
		if f, ok := clientWriter.(flusher); ok {
			f.Flush()
		}
		if hc, ok := clientWriter.(halfCloser); ok {
			hc.CloseWrite()
		} else {
			clientConn.Close()
		}
	}()

	wg.Wait()

	if logger != nil {
		logger.Debug("byte relay finished",
			zap.Int64("bytes_in", stats.BytesIn),
			zap.Int64("bytes_out", stats.BytesOut),
		)
	}

	if inErr != nil {
		return stats, inErr
	}
	return stats, outErr
}

// isBenignRelayError filters the errors that are the normal consequence of
// one side closing a connection out from under the other, so callers don't
// log them as failures.
func isBenignRelayError(err error) bool {
	if err == io.EOF {
		return true
	}
	if netErr, ok := err.(*net.OpError); ok {
		return netErr.Err.Error() == "use of closed network connection"
	}
	return false
}
