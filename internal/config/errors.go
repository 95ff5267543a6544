package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded configuration that fails Validate, such
	// as inverted score bounds or a login email without a password hash.
	ErrInvalidConfig = errors.New("config: invalid value")
	// ErrLoadConfig marks a failure to read the YAML file or ADMIT_ variables.
	ErrLoadConfig = errors.New("config: load failed")
)
