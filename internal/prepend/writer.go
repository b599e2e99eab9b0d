// Package prepend implements the write-side adapter that injects a fixed
// byte prefix ahead of the first application write, then becomes
// transparent. It exists so the relay loop (internal/relay) never has to
// know the VLESS response header needs to go out first — see spec §4.5
// and the design note in §9 on the prepend-on-first-write strategy.
package prepend

import "io"

// Writer wraps an io.Writer, holding back up to one fixed prefix ahead of
// whatever the caller first writes. After the prefix has fully drained
// into the inner writer, Writer delegates directly and adds no further
// overhead.
type Writer struct {
	inner   io.Writer
	pending []byte // remaining unsent prefix bytes; nil once drained
}

// New wraps inner, priming it to send prefix as a contiguous stream
// prefix ahead of the first Write call's data. A nil or empty prefix
// makes New return a Writer that delegates every call immediately.
func New(inner io.Writer, prefix []byte) *Writer {
	var pending []byte
	if len(prefix) > 0 {
		pending = append([]byte(nil), prefix...)
	}
	return &Writer{inner: inner, pending: pending}
}

// Write injects any undrained prefix ahead of p, in one contiguous view,
// and reports only the number of p's bytes that made it through — the
// prefix bytes are never counted in the returned n. Until the prefix has
// fully drained, a failed inner write reports zero application progress,
// per the contract in spec §4.5.
func (w *Writer) Write(p []byte) (int, error) {
	if len(w.pending) == 0 {
		return w.inner.Write(p)
	}

	prefixLen := len(w.pending)
	combined := make([]byte, 0, prefixLen+len(p))
	combined = append(combined, w.pending...)
	combined = append(combined, p...)

	offset := 0
	for offset < prefixLen {
		n, err := w.inner.Write(combined[offset:])
		offset += n
		if err != nil {
			if offset >= prefixLen {
				w.pending = nil
				return offset - prefixLen, err
			}
			w.pending = combined[offset:prefixLen]
			return 0, err
		}
	}
	w.pending = nil

	appWritten := offset - prefixLen
	if appWritten >= len(p) {
		return len(p), nil
	}
	// The inner write that cleared the prefix stopped partway through the
	// caller's own bytes; keep writing until they are all through.
	for appWritten < len(p) {
		n, err := w.inner.Write(p[appWritten:])
		appWritten += n
		if err != nil {
			return appWritten, err
		}
		if n == 0 {
			return appWritten, io.ErrShortWrite
		}
	}
	return appWritten, nil
}

// flusher is satisfied by inner writers that buffer output, e.g. a
// *bufio.Writer.
type flusher interface {
	Flush() error
}

// Flush forwards directly to the inner writer, if it buffers.
func (w *Writer) Flush() error {
	if f, ok := w.inner.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// halfCloser is satisfied by connections that support a TCP half-close,
// e.g. *net.TCPConn.
type halfCloser interface {
	CloseWrite() error
}

// CloseWrite forwards directly to the inner writer, if it supports a
// half-close.
func (w *Writer) CloseWrite() error {
	if c, ok := w.inner.(halfCloser); ok {
		return c.CloseWrite()
	}
	return nil
}
