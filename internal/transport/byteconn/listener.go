// Package byteconn is the raw-TCP transport binding for the proxy: a
// net.Listener wrapper that applies the connopt tuning to every accepted
// connection, mirroring how the teacher's proxyproto.Listener applies
// InitConn(conn) in its own Accept loop.
package byteconn

import (
	"net"
	"time"

	"github.com/iqhive/vlessproxy/internal/connopt"
)

// Listener wraps an underlying net.Listener, tuning every connection it
// accepts before handing it back to the caller.
type Listener struct {
	inner net.Listener
}

// New wraps inner.
func New(inner net.Listener) *Listener {
	return &Listener{inner: inner}
}

// Listen opens a TCP listener on addr and wraps it.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(ln), nil
}

// Accept waits for and returns the next connection, tuned via connopt.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.inner.Accept()
	if err != nil {
		return nil, err
	}
	connopt.Tune(conn)
	return conn, nil
}

// Close closes the underlying listener.
func (l *Listener) Close() error {
	return l.inner.Close()
}

// Addr returns the underlying listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

// DialUpstream connects to addr within timeout, tuning the resulting
// connection the same way accepted connections are tuned.
func DialUpstream(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	connopt.Tune(conn)
	return conn, nil
}
