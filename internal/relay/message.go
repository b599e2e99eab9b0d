package relay

import (
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/iqhive/vlessproxy/internal/connopt"
)

// MessageReader reads one complete application message per call, the unit
// a framed transport (the websocket binding) actually exchanges.
type MessageReader interface {
	ReadMessage() ([]byte, error)
}

// MessageWriter writes one complete application message per call. Writing
// a zero-length message is the agreed signal that the opposite direction
// has reached EOF — there is no half-close at the framing layer, so the
// far end has to be told explicitly.
type MessageWriter interface {
	WriteMessage([]byte) error
}

// Messages pumps data between a framed client (the websocket transport,
// already past its handshake) and a raw upstream TCP connection. Unlike
// Bytes, the client side has no half-close: EOF on the upstream leg is
// signalled to the client as an empty message instead.
func Messages(clientReader MessageReader, clientWriter MessageWriter, upstreamConn net.Conn, logger *zap.Logger) (Stats, error) {
	var stats Stats
	var wg sync.WaitGroup
	var inErr, outErr error

	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			msg, err := clientReader.ReadMessage()
			if err != nil {
				if err != io.EOF && !isBenignRelayError(err) {
					inErr = err
				}
				break
			}
			stats.BytesIn += int64(len(msg))
			if _, err := upstreamConn.Write(msg); err != nil {
				if !isBenignRelayError(err) {
					inErr = err
				}
				break
			}
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
		for {
			n, err := upstreamConn.Read(buf)
			if n > 0 {
				stats.BytesOut += int64(n)
				if werr := clientWriter.WriteMessage(buf[:n]); werr != nil {
					outErr = werr
					return
				}
			}
			if err != nil {
				if err != io.EOF && !isBenignRelayError(err) {
					outErr = err
				}
				clientWriter.WriteMessage(nil)
				return
			}
		}
	}()

	wg.Wait()

	if logger != nil {
		logger.Debug("message relay finished",
			zap.Int64("bytes_in", stats.BytesIn),
			zap.Int64("bytes_out", stats.BytesOut),
		)
	}

	if inErr != nil {
		return stats, inErr
	}
	return stats, outErr
}
