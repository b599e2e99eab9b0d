package relay

import (
	"io"
	"net"
)

// zeroCopyFunc transfers bytes from src to dst using buf as scratch space
// when no zero-copy path applies.
type zeroCopyFunc func(dst, src net.Conn, buf []byte) (int64, error)

var (
	zeroCopyImpl      zeroCopyFunc = fallbackCopy
	zeroCopyAvailable              = false
)

// ZeroCopyAvailable reports whether a platform zero-copy path (currently
// Linux splice) is wired in for this build.
func ZeroCopyAvailable() bool {
	return zeroCopyAvailable
}

// copyConn moves bytes from src to dst, using the splice fast path when
// both ends are raw TCP connections on Linux, falling back to a buffered
// io.Copy everywhere else. Only legs with no writer adapter in front of
// dst (no prepend header pending) may go through this path.
func copyConn(dst, src net.Conn, buf []byte) (int64, error) {
	return zeroCopyImpl(dst, src, buf)
}

func fallbackCopy(dst, src net.Conn, buf []byte) (int64, error) {
	return io.CopyBuffer(dst, src, buf)
}
