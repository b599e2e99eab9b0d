//go:build arm64
// +build arm64

package connopt

import (
	"net"
	"runtime"
	"syscall"
	"time"
)

const (
	readBufferSize  = 128 * 1024
	writeBufferSize = 128 * 1024
	defaultBufSize  = 4096

	tcpQuickAck = 12 // Linux TCP_QUICKACK, not in the syscall package
)

func initArchSpecific() {
	archBufferSize = arm64BufferSize
	archTuneConn = arm64TuneConn
}

func arm64BufferSize() int {
	if OSIsLinux {
		return defaultBufSize
	}
	switch runtime.GOOS {
	case "darwin":
		return 16 * 1024
	default:
		return 8 * 1024
	}
}

func arm64TuneConn(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tcpConn.SetNoDelay(true)

	switch {
	case OSIsLinux:
		tcpConn.SetReadBuffer(readBufferSize)
		tcpConn.SetWriteBuffer(writeBufferSize)
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
		if socketFD, err := fd(tcpConn); err == nil {
			syscall.SetsockoptInt(socketFD, syscall.IPPROTO_TCP, tcpQuickAck, 1)
		}
	case runtime.GOOS == "darwin":
		tcpConn.SetReadBuffer(128 * 1024)
		tcpConn.SetWriteBuffer(128 * 1024)
		tcpConn.SetKeepAlive(true)
	default:
		tcpConn.SetReadBuffer(64 * 1024)
		tcpConn.SetWriteBuffer(64 * 1024)
		tcpConn.SetKeepAlive(true)
	}
}
