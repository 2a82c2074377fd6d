package bluetooth

import "errors"

// Domain-specific errors for the BLE adapter.
var (
	// ErrAdapterUnavailable is returned when the radio cannot be enabled.
	ErrAdapterUnavailable = errors.New("bluetooth: adapter unavailable")

	// ErrInvalidUUID is returned when a configured service or characteristic UUID cannot be parsed.
	ErrInvalidUUID = errors.New("bluetooth: invalid uuid")

	// ErrNotRegistered is returned when advertising is requested before Register.
	ErrNotRegistered = errors.New("bluetooth: provisioning service not registered")

	// ErrAlreadyRunning is returned when Start is called on a running scanner.
	ErrAlreadyRunning = errors.New("bluetooth: scanner already running")
)
