package shared

import "errors"

var (
	// ErrOutOfRange signals a configuration value outside its allowed range.
	ErrOutOfRange = errors.New("out of range")
)
