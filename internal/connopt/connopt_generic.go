//go:build !amd64 && !arm64
// +build !amd64,!arm64

package connopt

import (
	"net"
	"runtime"
	"time"
)

const (
	readBufferSize  = 64 * 1024
	writeBufferSize = 64 * 1024
	defaultBufSize  = 4096
)

func initArchSpecific() {
	archBufferSize = genericBufferSize
	archTuneConn = genericTuneConn
}

func genericBufferSize() int {
	switch runtime.GOOS {
	case "linux", "darwin":
		return 8 * 1024
	default:
		return defaultBufSize
	}
}

func genericTuneConn(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tcpConn.SetNoDelay(true)
	tcpConn.SetReadBuffer(readBufferSize)
	tcpConn.SetWriteBuffer(writeBufferSize)
	tcpConn.SetKeepAlive(true)
	tcpConn.SetKeepAlivePeriod(30 * time.Second)
}
