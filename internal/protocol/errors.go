package protocol

import "errors"

var (
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrMalformedFrame   = errors.New("protocol: malformed frame")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrInvalidArgument  = errors.New("protocol: invalid argument")
	ErrShortResponse    = errors.New("protocol: short response")
)
