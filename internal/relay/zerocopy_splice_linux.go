//go:build linux
// +build linux

package relay

import (
	"errors"
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	spliceFlags  = unix.SPLICE_F_MOVE | unix.SPLICE_F_NONBLOCK | unix.SPLICE_F_MORE
	tcpCork      = 3 // Linux TCP_CORK, not in the syscall package
	spliceChunks = 64 * 1024
)

func init() {
	zeroCopyImpl = spliceCopy
	zeroCopyAvailable = true
}

// spliceCopy moves data from src to dst entirely inside the kernel via two
// splice(2) calls through an intermediate pipe, never touching userspace
// buffers. Falls back to a regular buffered copy for non-TCP connections
// or when the kernel reports splice isn't supported on this pair.
func spliceCopy(dst, src net.Conn, buf []byte) (int64, error) {
	srcTCP, srcOK := src.(*net.TCPConn)
	dstTCP, dstOK := dst.(*net.TCPConn)
	if !srcOK || !dstOK {
		return io.CopyBuffer(dst, src, buf)
	}

	srcFile, err := srcTCP.File()
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := dstTCP.File()
	if err != nil {
		return 0, err
	}
	defer dstFile.Close()

	srcFd := int(srcFile.Fd())
	dstFd := int(dstFile.Fd())

	syscall.SetsockoptInt(dstFd, syscall.IPPROTO_TCP, tcpCork, 1)
	defer syscall.SetsockoptInt(dstFd, syscall.IPPROTO_TCP, tcpCork, 0)

	pipeFds := make([]int, 2)
	if err := syscall.Pipe(pipeFds); err != nil {
		return 0, err
	}
	pipeR, pipeW := pipeFds[0], pipeFds[1]
	defer syscall.Close(pipeR)
	defer syscall.Close(pipeW)

	var total int64
	for {
		n, err := unix.Splice(srcFd, nil, pipeW, nil, spliceChunks, spliceFlags)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				if ready, werr := pollReady(srcFd, true); werr != nil {
					return total, werr
				} else if !ready {
					continue
				}
				continue
			}
			if errors.Is(err, syscall.EINVAL) {
				// This socket type doesn't support splice; hand off what's
				// left to the buffered path.
				rest, cerr := io.CopyBuffer(dst, src, buf)
				return total + rest, cerr
			}
			if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}

		var written int64
		for written < n {
			w, err := unix.Splice(pipeR, nil, dstFd, nil, int(n-written), unix.SPLICE_F_MOVE|unix.SPLICE_F_NONBLOCK)
			if err != nil {
				if errors.Is(err, syscall.EAGAIN) {
					if ready, werr := pollReady(dstFd, false); werr != nil {
						return total, werr
					} else if !ready {
						continue
					}
					continue
				}
				return total, err
			}
			written += w
			total += w
		}
	}
}

func pollReady(fd int, forRead bool) (bool, error) {
	pfd := unix.PollFd{Fd: int32(fd)}
	if forRead {
		pfd.Events = unix.POLLIN
	} else {
		pfd.Events = unix.POLLOUT
	}
	n, err := unix.Poll([]unix.PollFd{pfd}, 1000)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
