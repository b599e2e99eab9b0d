package vlessproto

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iqhive/vlessproxy/internal/parsekit"
)

// Command identifies what the client wants done with the destination
// address carried in the header (or, for Mux, the synthetic one).
type Command byte

const (
	CommandTCP Command = 0x01
	CommandUDP Command = 0x02
	CommandMux Command = 0x03
)

func (c Command) String() string {
	switch c {
	case CommandTCP:
		return "tcp"
	case CommandUDP:
		return "udp"
	case CommandMux:
		return "mux"
	default:
		return "unknown"
	}
}

// muxSentinelDomain is the destination substituted for the Mux command,
// which carries no address on the wire.
const muxSentinelDomain = "v1.mux.cool"

// RequestHeader is the VLESS client header: version, user, addon length,
// command, and (for TCP/UDP) a destination address-with-port.
type RequestHeader struct {
	User        uuid.UUID
	Command     Command
	Destination ProxyAddressWithPort
}

// RequestParseOptions is the single recognized codec option: is_fb widens
// the pre-command prefix from 17 to 34 bytes for a fronting mode this
// module recognizes but otherwise ignores beyond the size shift (spec §9).
type RequestParseOptions struct {
	IsFallback bool
}

func (o RequestParseOptions) prefixLen() int {
	if o.IsFallback {
		return 34
	}
	return 17
}

// ParseRequestHeader decodes a VLESS request header from the front of
// buffer. See spec §4.3 for the wire layout.
func ParseRequestHeader(buffer []byte, options RequestParseOptions) parsekit.Outcome[RequestHeader] {
	prefixLen := options.prefixLen()
	minSize := prefixLen + 2 // version+user(+addon padding) + addon-length byte + command byte
	if len(buffer) < minSize {
		return parsekit.Incomplete[RequestHeader](minSize - len(buffer))
	}
	if buffer[0] != 0x00 {
		return parsekit.Error[RequestHeader](ErrInvalidVersion)
	}
	user, err := uuid.FromBytes(buffer[1:17])
	if err != nil {
		return parsekit.Error[RequestHeader](ErrInvalidVersion)
	}
	if buffer[prefixLen] != 0x00 {
		return parsekit.Error[RequestHeader](ErrAddonIsNotSupported)
	}

	commandByte := buffer[prefixLen+1]
	var command Command
	switch commandByte {
	case byte(CommandTCP):
		command = CommandTCP
	case byte(CommandUDP):
		command = CommandUDP
	case byte(CommandMux):
		command = CommandMux
	default:
		return parsekit.Error[RequestHeader](ErrInvalidCommand)
	}

	if command == CommandMux {
		header := RequestHeader{
			User:        user,
			Command:     command,
			Destination: ProxyAddressWithPort{Address: DomainSentinel(muxSentinelDomain), Port: 0},
		}
		return parsekit.Parsed(header, minSize)
	}

	addrOutcome := ParseProxyAddressWithPort(buffer[minSize:])
	destination, addrSize, ok := addrOutcome.IsParsed()
	if !ok {
		if needed, ok := addrOutcome.IsIncomplete(); ok {
			return parsekit.Incomplete[RequestHeader](needed)
		}
		return parsekit.Error[RequestHeader](ErrInvalidAddress)
	}
	if destination.Address.Kind == AddressDomain && !utf8.ValidString(destination.Address.Domain) {
		return parsekit.Error[RequestHeader](ErrInvalidAddress)
	}

	header := RequestHeader{
		User:        user,
		Command:     command,
		Destination: destination,
	}
	return parsekit.Parsed(header, minSize+addrSize)
}

// Size reports the exact encoded length of h (using the non-fallback,
// 17-byte prefix; the fallback prefix is a parse-side-only option).
func (h RequestHeader) Size() int {
	if h.Command == CommandMux {
		return 19
	}
	return 19 + h.Destination.Size()
}

// Form writes h's wire encoding into buffer.
func (h RequestHeader) Form(buffer []byte) (int, error) {
	size := h.Size()
	if len(buffer) < size {
		return 0, parsekit.ErrInsufficientBuffer
	}
	buffer[0] = 0x00
	copy(buffer[1:17], h.User[:])
	buffer[17] = 0x00
	buffer[18] = byte(h.Command)
	if h.Command == CommandMux {
		return 19, nil
	}
	destSize, err := h.Destination.Form(buffer[19:])
	if err != nil {
		return 0, err
	}
	return 19 + destSize, nil
}
