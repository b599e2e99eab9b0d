package vlessproto

import "github.com/iqhive/vlessproxy/internal/parsekit"

// ResponseHeader is the VLESS server header: two bytes, always zero
// (version and addon length), a fixed prefix to whatever the target sends
// back first.
type ResponseHeader struct{}

// ParseResponseHeader decodes a VLESS response header from the front of
// buffer.
func ParseResponseHeader(buffer []byte) parsekit.Outcome[ResponseHeader] {
	if len(buffer) < 2 {
		return parsekit.Incomplete[ResponseHeader](2 - len(buffer))
	}
	if buffer[0] != 0x00 {
		return parsekit.Error[ResponseHeader](ErrInvalidVersion)
	}
	if buffer[1] != 0x00 {
		return parsekit.Error[ResponseHeader](ErrAddonIsNotSupported)
	}
	return parsekit.Parsed(ResponseHeader{}, 2)
}

// Size is always 2.
func (ResponseHeader) Size() int { return 2 }

// Form always writes {0x00, 0x00}.
func (ResponseHeader) Form(buffer []byte) (int, error) {
	if len(buffer) < 2 {
		return 0, parsekit.ErrInsufficientBuffer
	}
	buffer[0] = 0x00
	buffer[1] = 0x00
	return 2, nil
}

// Bytes returns the fixed 2-byte wire encoding, for callers (the prepend
// adapter) that want it without going through Form.
func (ResponseHeader) Bytes() []byte {
	return []byte{0x00, 0x00}
}
