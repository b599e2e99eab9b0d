// Package wsconn is the websocket transport binding for the proxy: a
// message-stream client leg carried over an HTTP upgrade, using
// golang.org/x/net/websocket (declared in the teacher's go.mod but never
// wired into any of its own code).
package wsconn

import (
	"errors"
	"net/http"

	"golang.org/x/net/websocket"
)

// Conn adapts a *websocket.Conn to the relay.MessageReader/MessageWriter
// pair. Each ReadMessage/WriteMessage call corresponds to exactly one
// websocket frame; only binary frames carry application data, so
// ReadMessage silently drops anything else (text frames, in particular)
// rather than handing it to the relay, matching the original's
// `stream.filter(|msg| msg.is_binary())`.
type Conn struct {
	ws *websocket.Conn
}

// Wrap adapts an already-upgraded websocket connection.
func Wrap(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

var errNonBinaryFrame = errors.New("wsconn: dropping non-binary frame")

// binaryOnly is websocket.Message's codec with an Unmarshal that rejects
// any payload type other than BinaryFrame, so ReadMessage's retry loop
// never surfaces a text frame to the caller.
var binaryOnly = websocket.Codec{
	Marshal: websocket.Message.Marshal,
	Unmarshal: func(data []byte, payloadType byte, v interface{}) error {
		if payloadType != websocket.BinaryFrame {
			return errNonBinaryFrame
		}
		buf, ok := v.(*[]byte)
		if !ok {
			return errors.New("wsconn: unsupported receive target")
		}
		*buf = data
		return nil
	},
}

// ReadMessage reads the next binary frame payload, skipping over any
// non-binary frames (e.g. text) it encounters along the way.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		var buf []byte
		err := binaryOnly.Receive(c.ws, &buf)
		if err == nil {
			return buf, nil
		}
		if errors.Is(err, errNonBinaryFrame) {
			continue
		}
		return nil, err
	}
}

// WriteMessage sends p as a single binary frame.
func (c *Conn) WriteMessage(p []byte) error {
	return websocket.Message.Send(c.ws, p)
}

// RemoteAddr returns the address of the websocket's underlying TCP
// connection, as reported by the originating HTTP request.
func (c *Conn) RemoteAddr() string {
	return c.ws.Request().RemoteAddr
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// Handler is invoked once per accepted websocket connection.
type Handler func(conn *Conn)

// Mount registers a websocket handler at path on mux, adapting each
// upgraded connection through Wrap.
func Mount(mux *http.ServeMux, path string, handler Handler) {
	mux.Handle(path, websocket.Handler(func(ws *websocket.Conn) {
		handler(Wrap(ws))
	}))
}
