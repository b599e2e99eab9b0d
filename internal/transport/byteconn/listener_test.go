package byteconn

import (
	"testing"
	"time"
)

func TestListenAcceptDial(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	accepted := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			accepted <- err
			return
		}
		defer conn.Close()
		accepted <- nil
	}()

	conn, err := DialUpstream(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case err := <-accepted:
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("accept did not complete in time")
	}
}
