package admission

import "errors"

// Sentinel kinds for this package.
var (
	ErrUnknownStatus = errors.New("unknown admission status")
)
