package vlessproto

import (
	"bytes"
	"testing"
)

func TestParseProxyAddressDomain(t *testing.T) {
	buffer := append([]byte{0x02, 0x0B}, []byte("example.com")...)
	outcome := ParseProxyAddress(buffer)
	addr, size, ok := outcome.IsParsed()
	if !ok {
		t.Fatalf("expected Parsed, got incomplete/error")
	}
	if size != 13 {
		t.Fatalf("expected size 13, got %d", size)
	}
	if addr.Kind != AddressDomain || addr.Domain != "example.com" {
		t.Fatalf("expected domain example.com, got %+v", addr)
	}
}

func TestParseProxyAddressIPv6(t *testing.T) {
	buffer := []byte{
		0x03, 0x20, 0x01, 0x0d, 0xb8, 0x85, 0xa3, 0x00, 0x00, 0x00, 0x00,
		0x8a, 0x2e, 0x03, 0x70, 0x73, 0x34,
	}
	outcome := ParseProxyAddress(buffer)
	addr, size, ok := outcome.IsParsed()
	if !ok {
		t.Fatal("expected Parsed")
	}
	if size != 17 {
		t.Fatalf("expected size 17, got %d", size)
	}
	if addr.Kind != AddressIPv6 {
		t.Fatalf("expected IPv6 kind, got %v", addr.Kind)
	}
	if !bytes.Equal(addr.IPv6[:], buffer[1:]) {
		t.Fatalf("IPv6 bytes mismatch: got %x", addr.IPv6)
	}
}

func TestParseProxyAddressIncompleteDomain(t *testing.T) {
	buffer := append([]byte{0x02, 0x0B}, []byte("example")...)
	outcome := ParseProxyAddress(buffer)
	needed, ok := outcome.IsIncomplete()
	if !ok {
		t.Fatal("expected Incomplete")
	}
	if needed != 4 {
		t.Fatalf("expected needed 4, got %d", needed)
	}
}

func TestParseProxyAddressInvalidType(t *testing.T) {
	outcome := ParseProxyAddress([]byte{0x04, 0, 0})
	if err := outcome.Err(); err != ErrInvalidAddressType {
		t.Fatalf("expected ErrInvalidAddressType, got %v", err)
	}
}

func TestFormProxyAddressIPv4(t *testing.T) {
	addr := ProxyAddress{Kind: AddressIPv4, IPv4: [4]byte{192, 168, 1, 1}}
	buffer := make([]byte, addr.Size())
	n, err := addr.Form(buffer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}
	want := []byte{0x01, 192, 168, 1, 1}
	if !bytes.Equal(buffer, want) {
		t.Fatalf("expected %x, got %x", want, buffer)
	}
}

func TestFormProxyAddressInsufficientBuffer(t *testing.T) {
	addr := ProxyAddress{Kind: AddressIPv4, IPv4: [4]byte{192, 168, 1, 1}}
	buffer := make([]byte, 2)
	if _, err := addr.Form(buffer); err == nil {
		t.Fatal("expected insufficient buffer error")
	}
}

func TestProxyAddressRoundTrip(t *testing.T) {
	cases := []ProxyAddress{
		{Kind: AddressIPv4, IPv4: [4]byte{10, 0, 0, 1}},
		{Kind: AddressIPv6, IPv6: [16]byte{0x20, 0x01, 0x0d, 0xb8}},
		{Kind: AddressDomain, Domain: "example.com"},
		{Kind: AddressDomain, Domain: ""},
	}
	for _, want := range cases {
		buffer := make([]byte, want.Size())
		if _, err := want.Form(buffer); err != nil {
			t.Fatalf("form failed: %v", err)
		}
		outcome := ParseProxyAddress(buffer)
		got, size, ok := outcome.IsParsed()
		if !ok {
			t.Fatalf("expected Parsed for %+v", want)
		}
		if size != want.Size() {
			t.Fatalf("size mismatch: got %d want %d", size, want.Size())
		}
		if got != want {
			t.Fatalf("round-trip mismatch: got %+v want %+v", got, want)
		}
	}
}

func TestProxyAddressWithPortRoundTrip(t *testing.T) {
	want := ProxyAddressWithPort{
		Address: ProxyAddress{Kind: AddressDomain, Domain: "example.com"},
		Port:    8443,
	}
	buffer := make([]byte, want.Size())
	if _, err := want.Form(buffer); err != nil {
		t.Fatalf("form failed: %v", err)
	}
	outcome := ParseProxyAddressWithPort(buffer)
	got, size, ok := outcome.IsParsed()
	if !ok {
		t.Fatal("expected Parsed")
	}
	if size != want.Size() {
		t.Fatalf("size mismatch: got %d want %d", size, want.Size())
	}
	if got != want {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, want)
	}
}

func TestProxyAddressWithPortSplitIncomplete(t *testing.T) {
	full := ProxyAddressWithPort{
		Address: ProxyAddress{Kind: AddressDomain, Domain: "example.com"},
		Port:    443,
	}
	encoded := make([]byte, full.Size())
	if _, err := full.Form(encoded); err != nil {
		t.Fatalf("form failed: %v", err)
	}
	for split := 0; split < len(encoded); split++ {
		outcome := ParseProxyAddressWithPort(encoded[:split])
		if _, _, ok := outcome.IsParsed(); ok {
			t.Fatalf("split %d: expected incomplete or error, got Parsed", split)
		}
	}
	outcome := ParseProxyAddressWithPort(encoded)
	if _, _, ok := outcome.IsParsed(); !ok {
		t.Fatal("expected full buffer to parse")
	}
}
