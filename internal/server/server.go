// Package server drives a single VLESS connection end to end: accumulate
// and parse the request header off whichever transport handed it the
// connection, dial the destination, prime the response header for
// prepend-on-first-write, and hand off to the matching relay strategy.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/iqhive/vlessproxy/internal/prepend"
	"github.com/iqhive/vlessproxy/internal/relay"
	"github.com/iqhive/vlessproxy/internal/transport/byteconn"
	"github.com/iqhive/vlessproxy/internal/transport/wsconn"
	"github.com/iqhive/vlessproxy/internal/vlessproto"
)

// ErrUnexpectedDisconnect is returned when the client closes the
// connection before a full request header has been read.
var ErrUnexpectedDisconnect = errors.New("server: client disconnected before request header completed")

// Options configures connection handling.
type Options struct {
	DialTimeout time.Duration
	Logger      *zap.Logger
	// IsFallback mirrors vlessproto.RequestParseOptions.IsFallback, for
	// deployments sitting behind another protocol sniffer that already
	// consumed the first bytes of the stream.
	IsFallback bool
}

func (o Options) dialTimeout() time.Duration {
	if o.DialTimeout > 0 {
		return o.DialTimeout
	}
	return 10 * time.Second
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// HandleByteConn drives one raw-TCP VLESS client connection. It owns conn
// and closes it before returning.
func HandleByteConn(conn net.Conn, opts Options) error {
	defer conn.Close()
	logger := opts.logger()

	buffer := make([]byte, 1024)
	offset := 0
	header, consumed, err := accumulateHeader(func() (int, error) {
		if offset == len(buffer) {
			buffer = append(buffer, make([]byte, len(buffer))...)
		}
		n, err := conn.Read(buffer[offset:])
		offset += n
		return n, err
	}, func() []byte { return buffer[:offset] }, opts.requestOptions())
	if err != nil {
		return fmt.Errorf("server: reading request header: %w", err)
	}

	destAddr := header.Destination.String()
	logger.Debug("vless request", zap.Stringer("user", header.User), zap.String("destination", destAddr))

	upstream, err := byteconn.DialUpstream(destAddr, opts.dialTimeout())
	if err != nil {
		return fmt.Errorf("server: dialing %s: %w", destAddr, err)
	}
	defer upstream.Close()

	if leftover := buffer[consumed:offset]; len(leftover) > 0 {
		if _, err := upstream.Write(leftover); err != nil {
			return fmt.Errorf("server: forwarding early data: %w", err)
		}
	}

	clientWriter := prepend.New(conn, vlessproto.ResponseHeader{}.Bytes())
	_, err = relay.Bytes(conn, upstream, clientWriter, logger)
	return err
}

// HandleWSConn drives one websocket VLESS client connection. It owns conn
// and closes it before returning.
func HandleWSConn(conn *wsconn.Conn, opts Options) error {
	defer conn.Close()
	logger := opts.logger()

	var data []byte
	header, consumed, err := accumulateHeader(func() (int, error) {
		msg, err := conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		data = append(data, msg...)
		return len(msg), nil
	}, func() []byte { return data }, opts.requestOptions())
	if err != nil {
		return fmt.Errorf("server: reading request header: %w", err)
	}

	destAddr := header.Destination.String()
	logger.Debug("vless request", zap.Stringer("user", header.User), zap.String("destination", destAddr), zap.String("remote", conn.RemoteAddr()))

	upstream, err := byteconn.DialUpstream(destAddr, opts.dialTimeout())
	if err != nil {
		return fmt.Errorf("server: dialing %s: %w", destAddr, err)
	}
	defer upstream.Close()

	if leftover := data[consumed:]; len(leftover) > 0 {
		if _, err := upstream.Write(leftover); err != nil {
			return fmt.Errorf("server: forwarding early data: %w", err)
		}
	}

	clientWriter := prepend.NewFirstMessageWriter(conn, vlessproto.ResponseHeader{}.Bytes())
	_, err = relay.Messages(conn, clientWriter, upstream, logger)
	return err
}

func (o Options) requestOptions() vlessproto.RequestParseOptions {
	return vlessproto.RequestParseOptions{IsFallback: o.IsFallback}
}

// accumulateHeader repeatedly calls readMore to pull in additional bytes
// (one TCP read, or one websocket message) and reparses the accumulated
// buffer, returned via snapshot, until the request header parses or
// errors. It mirrors the shared accumulation loop the original driver
// used for both its transports. A transport EOF before the header
// completes is reported as ErrUnexpectedDisconnect, per spec §7/§4.8.
func accumulateHeader(readMore func() (int, error), snapshot func() []byte, options vlessproto.RequestParseOptions) (vlessproto.RequestHeader, int, error) {
	for {
		outcome := vlessproto.ParseRequestHeader(snapshot(), options)
		if header, size, ok := outcome.IsParsed(); ok {
			return header, size, nil
		}
		if err := outcome.Err(); err != nil {
			return vlessproto.RequestHeader{}, 0, err
		}
		n, err := readMore()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return vlessproto.RequestHeader{}, 0, ErrUnexpectedDisconnect
			}
			return vlessproto.RequestHeader{}, 0, err
		}
		if n == 0 {
			return vlessproto.RequestHeader{}, 0, ErrUnexpectedDisconnect
		}
	}
}
