package protocol

import "errors"

var (
	ErrTruncated      = errors.New("protocol: truncated data")
	ErrInvalidLength  = errors.New("protocol: invalid length")
	ErrInvalidEnum    = errors.New("protocol: invalid enumeration value")
	ErrUnknownCommand = errors.New("protocol: unknown command")
)
