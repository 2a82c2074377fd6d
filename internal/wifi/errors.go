package wifi

import "errors"

var (
	// ErrEmptySSID is returned by Attach when no network name is given.
	ErrEmptySSID = errors.New("wifi: empty ssid")

	// ErrInvalidSecret is returned when a secret cannot be a WPA passphrase.
	ErrInvalidSecret = errors.New("wifi: secret must be 8-63 characters or 64 hex digits")
)
