package vlessproto

import (
	"encoding/binary"
	"net"
	"strconv"

	"github.com/iqhive/vlessproxy/internal/parsekit"
)

// AddressKind is the first byte of a ProxyAddress encoding, identifying
// which of the three address families follows.
type AddressKind byte

const (
	AddressIPv4   AddressKind = 0x01
	AddressDomain AddressKind = 0x02
	AddressIPv6   AddressKind = 0x03
)

func (k AddressKind) String() string {
	switch k {
	case AddressIPv4:
		return "ipv4"
	case AddressDomain:
		return "domain"
	case AddressIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// ProxyAddress is the tagged union of the three address families VLESS can
// carry on the wire. Exactly one of IPv4/IPv6/Domain is meaningful,
// selected by Kind.
type ProxyAddress struct {
	Kind   AddressKind
	IPv4   [4]byte
	IPv6   [16]byte
	Domain string
}

// DomainSentinel is the synthetic destination used for the Mux command,
// which carries no address on the wire.
func DomainSentinel(name string) ProxyAddress {
	return ProxyAddress{Kind: AddressDomain, Domain: name}
}

func (a ProxyAddress) String() string {
	switch a.Kind {
	case AddressIPv4:
		return net.IP(a.IPv4[:]).String()
	case AddressIPv6:
		return net.IP(a.IPv6[:]).String()
	case AddressDomain:
		return a.Domain
	default:
		return "<invalid address>"
	}
}

// ParseProxyAddress decodes one of the three ProxyAddress wire forms from
// the front of buffer. See spec §4.2 for the exact framing.
func ParseProxyAddress(buffer []byte) parsekit.Outcome[ProxyAddress] {
	if len(buffer) < 3 {
		// A zero-length domain is the one encoding shorter than 3 bytes.
		if len(buffer) == 2 && AddressKind(buffer[0]) == AddressDomain && buffer[1] == 0 {
			return parsekit.Parsed(ProxyAddress{Kind: AddressDomain}, 2)
		}
		return parsekit.Incomplete[ProxyAddress](3 - len(buffer))
	}
	switch AddressKind(buffer[0]) {
	case AddressIPv4:
		const size = 5
		if len(buffer) < size {
			return parsekit.Incomplete[ProxyAddress](size - len(buffer))
		}
		var addr ProxyAddress
		addr.Kind = AddressIPv4
		copy(addr.IPv4[:], buffer[1:size])
		return parsekit.Parsed(addr, size)
	case AddressDomain:
		domainLen := int(buffer[1])
		size := 2 + domainLen
		if len(buffer) < size {
			return parsekit.Incomplete[ProxyAddress](size - len(buffer))
		}
		var addr ProxyAddress
		addr.Kind = AddressDomain
		// Copied rather than borrowed: Go strings own their bytes, so the
		// zero-copy borrow the wire format admits (see spec §9) isn't
		// representable without tying the result's lifetime to the input
		// buffer by caller discipline. We copy instead.
		addr.Domain = string(buffer[2:size])
		return parsekit.Parsed(addr, size)
	case AddressIPv6:
		const size = 17
		if len(buffer) < size {
			return parsekit.Incomplete[ProxyAddress](size - len(buffer))
		}
		var addr ProxyAddress
		addr.Kind = AddressIPv6
		copy(addr.IPv6[:], buffer[1:size])
		return parsekit.Parsed(addr, size)
	default:
		return parsekit.Error[ProxyAddress](ErrInvalidAddressType)
	}
}

// Size reports the exact encoded length of a.
func (a ProxyAddress) Size() int {
	switch a.Kind {
	case AddressIPv4:
		return 5
	case AddressIPv6:
		return 17
	case AddressDomain:
		return 2 + len(a.Domain)
	default:
		return 0
	}
}

// Form writes a's wire encoding into buffer[0:a.Size()].
func (a ProxyAddress) Form(buffer []byte) (int, error) {
	size := a.Size()
	if len(buffer) < size {
		return 0, parsekit.ErrInsufficientBuffer
	}
	switch a.Kind {
	case AddressIPv4:
		buffer[0] = byte(AddressIPv4)
		copy(buffer[1:5], a.IPv4[:])
	case AddressIPv6:
		buffer[0] = byte(AddressIPv6)
		copy(buffer[1:17], a.IPv6[:])
	case AddressDomain:
		buffer[0] = byte(AddressDomain)
		buffer[1] = byte(len(a.Domain))
		copy(buffer[2:size], a.Domain)
	default:
		return 0, parsekit.ErrInsufficientBuffer
	}
	return size, nil
}

// ProxyAddressWithPort is a ProxyAddress plus the big-endian port that
// precedes it on the wire.
type ProxyAddressWithPort struct {
	Address ProxyAddress
	Port    uint16
}

func (a ProxyAddressWithPort) String() string {
	return net.JoinHostPort(a.Address.String(), strconv.Itoa(int(a.Port)))
}

// ParseProxyAddressWithPort decodes a 2-byte big-endian port followed by a
// ProxyAddress. The port is read before the address-family minimum-size
// check is applied, matching spec §4.2's framing note.
func ParseProxyAddressWithPort(buffer []byte) parsekit.Outcome[ProxyAddressWithPort] {
	if len(buffer) < 3 {
		return parsekit.Incomplete[ProxyAddressWithPort](3 - len(buffer))
	}
	port := binary.BigEndian.Uint16(buffer[:2])
	addrOutcome := ParseProxyAddress(buffer[2:])
	if addr, size, ok := addrOutcome.IsParsed(); ok {
		return parsekit.Parsed(ProxyAddressWithPort{Address: addr, Port: port}, size+2)
	}
	if needed, ok := addrOutcome.IsIncomplete(); ok {
		return parsekit.Incomplete[ProxyAddressWithPort](needed)
	}
	return parsekit.Error[ProxyAddressWithPort](addrOutcome.Err())
}

// Size reports the exact encoded length of a, including the port.
func (a ProxyAddressWithPort) Size() int {
	return 2 + a.Address.Size()
}

// Form writes a's wire encoding (port, then address) into buffer.
func (a ProxyAddressWithPort) Form(buffer []byte) (int, error) {
	if len(buffer) < 2 {
		return 0, parsekit.ErrInsufficientBuffer
	}
	binary.BigEndian.PutUint16(buffer[:2], a.Port)
	addrSize, err := a.Address.Form(buffer[2:])
	if err != nil {
		return 0, err
	}
	return 2 + addrSize, nil
}
