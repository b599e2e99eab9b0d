package parsekit

import "errors"

// ErrInsufficientBuffer is returned by Form when the destination buffer is
// smaller than Size() reports. Form must leave the buffer untouched in
// that case.
var ErrInsufficientBuffer = errors.New("parsekit: insufficient buffer")

// Former is implemented by values with a fixed-size, option-free wire
// encoding. Parser implementations that take no options (the response
// header, the bare address types) also satisfy this.
type Former interface {
	// Size reports the exact number of bytes Form will write.
	Size() int
	// Form writes the encoding into buffer[0:Size()]. If len(buffer) <
	// Size(), it returns ErrInsufficientBuffer and leaves buffer untouched.
	Form(buffer []byte) (int, error)
}
