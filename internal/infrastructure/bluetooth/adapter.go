package bluetooth

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Logger defines the logging interface for the BLE components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Enable powers up the default adapter (BlueZ over D-Bus on Linux).
func Enable() (*bluetooth.Adapter, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
	}
	return adapter, nil
}
