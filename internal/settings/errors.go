package settings

import "errors"

var (
	// ErrValueTooLong is returned when a value exceeds MaxValueLength bytes.
	ErrValueTooLong = errors.New("settings: value too long")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("settings: empty key")
)
