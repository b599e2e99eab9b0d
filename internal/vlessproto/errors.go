package vlessproto

import "errors"

// Decode error kinds, per spec §7. Parse/form errors are never retried by
// callers; they terminate the connection.
var (
	ErrInvalidAddressType    = errors.New("vlessproto: invalid address type")
	ErrInvalidVersion        = errors.New("vlessproto: invalid version")
	ErrAddonIsNotSupported   = errors.New("vlessproto: addon is not supported")
	ErrInvalidCommand        = errors.New("vlessproto: invalid command")
	ErrInvalidAddress        = errors.New("vlessproto: invalid address")
)
