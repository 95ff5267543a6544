package session

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrThrottled          = errors.New("too many login attempts")
	ErrDisabled           = errors.New("authentication disabled")
)
