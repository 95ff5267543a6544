package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Callers match them with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoData             = errors.New("no data for selection")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
)

// ValidationError reports which request field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NoDataError is returned when a group and sector select no rows. It carries
// the available choices so clients can recover.
type NoDataError struct {
	Group   string
	Sector  string
	Groups  []string
	Sectors []string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for group %q and sector %q", e.Group, e.Sector)
}

// Unwrap lets errors.Is(err, ErrNoData) match.
func (e *NoDataError) Unwrap() error { return ErrNoData }
