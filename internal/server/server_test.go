package server

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iqhive/vlessproxy/internal/vlessproto"
)

func startEchoServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("echo listen failed: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()
	return ln
}

func TestHandleByteConnRelaysToEchoServer(t *testing.T) {
	echoLn := startEchoServer(t)
	defer echoLn.Close()
	echoHost, echoPortStr, _ := net.SplitHostPort(echoLn.Addr().String())
	_ = echoHost

	proxyLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("proxy listen failed: %v", err)
	}
	defer proxyLn.Close()

	go func() {
		conn, err := proxyLn.Accept()
		if err != nil {
			return
		}
		HandleByteConn(conn, Options{DialTimeout: 2 * time.Second})
	}()

	client, err := net.Dial("tcp", proxyLn.Addr().String())
	if err != nil {
		t.Fatalf("client dial failed: %v", err)
	}
	defer client.Close()

	user, _ := uuid.NewRandom()
	echoPort := parsePort(t, echoPortStr)
	header := vlessproto.RequestHeader{
		User:    user,
		Command: vlessproto.CommandTCP,
		Destination: vlessproto.ProxyAddressWithPort{
			Address: vlessproto.ProxyAddress{Kind: vlessproto.AddressIPv4, IPv4: ipv4Loopback()},
			Port:    echoPort,
		},
	}
	buf := make([]byte, header.Size())
	if _, err := header.Form(buf); err != nil {
		t.Fatalf("form failed: %v", err)
	}
	payload := []byte("round trip payload")
	if _, err := client.Write(append(buf, payload...)); err != nil {
		t.Fatalf("client write failed: %v", err)
	}

	respHeader := make([]byte, 2)
	if _, err := io.ReadFull(client, respHeader); err != nil {
		t.Fatalf("reading response header failed: %v", err)
	}
	if respHeader[0] != 0 || respHeader[1] != 0 {
		t.Fatalf("expected zero response header, got %x", respHeader)
	}

	echoed := make([]byte, len(payload))
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(client, echoed); err != nil {
		t.Fatalf("reading echoed payload failed: %v", err)
	}
	if string(echoed) != string(payload) {
		t.Fatalf("expected echoed payload %q, got %q", payload, echoed)
	}
}

func TestHandleByteConnReportsUnexpectedDisconnectOnEarlyEOF(t *testing.T) {
	proxyLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("proxy listen failed: %v", err)
	}
	defer proxyLn.Close()

	result := make(chan error, 1)
	go func() {
		conn, err := proxyLn.Accept()
		if err != nil {
			result <- err
			return
		}
		result <- HandleByteConn(conn, Options{DialTimeout: 2 * time.Second})
	}()

	client, err := net.Dial("tcp", proxyLn.Addr().String())
	if err != nil {
		t.Fatalf("client dial failed: %v", err)
	}
	// Write a partial header (fewer than the 19 bytes required) and close,
	// so the server sees a clean EOF before the header completes.
	if _, err := client.Write([]byte{0x00, 0x01, 0x02}); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	client.Close()

	select {
	case err := <-result:
		if !errors.Is(err, ErrUnexpectedDisconnect) {
			t.Fatalf("expected ErrUnexpectedDisconnect, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return in time")
	}
}

func ipv4Loopback() [4]byte {
	return [4]byte{127, 0, 0, 1}
}

func parsePort(t *testing.T, s string) uint16 {
	t.Helper()
	var port int
	for _, c := range s {
		if c < '0' || c > '9' {
			t.Fatalf("invalid port string %q", s)
		}
		port = port*10 + int(c-'0')
	}
	return uint16(port)
}
