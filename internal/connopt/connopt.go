// Package connopt applies architecture- and OS-specific tuning to the raw
// TCP connections the proxy dials and accepts: buffer sizes, keepalive,
// and Nagle's algorithm. The tuning knobs themselves are selected per
// build target (see connopt_amd64.go, connopt_arm64.go, connopt_generic.go).
package connopt

import (
	"net"
	"runtime"
)

// OSIsLinux is true when running on Linux, where TCP_QUICKACK is available.
var OSIsLinux = runtime.GOOS == "linux"

var (
	archBufferSize func() int
	archTuneConn   func(net.Conn)
)

func init() {
	initArchSpecific()
}

// BufferSize returns the relay buffer size tuned for the current
// architecture and OS.
func BufferSize() int {
	return archBufferSize()
}

// Tune applies architecture-specific socket options to conn. Non-TCP
// connections (and the ws transport, which never gets here) are left
// untouched.
func Tune(conn net.Conn) {
	archTuneConn(conn)
}

// fd extracts the file descriptor from a TCP connection for direct
// socket-option calls that net.TCPConn doesn't expose.
func fd(tcpConn *net.TCPConn) (int, error) {
	file, err := tcpConn.File()
	if err != nil {
		return -1, err
	}
	defer file.Close()
	return int(file.Fd()), nil
}
