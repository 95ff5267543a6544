package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotLoaded         = errors.New("dataset not loaded")
	ErrNoSource          = errors.New("dataset source path not configured")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMissingColumn     = errors.New("required column missing")
	ErrEmptySheet        = errors.New("dataset sheet is empty")
	ErrSheetNotFound     = errors.New("dataset sheet not found")
)
