package coordinator

// Attacher drives the wide-area network attach. Outcomes are reported
// asynchronously by posting AttachSucceeded or AttachLost.
type Attacher interface {
	// Attach starts one attempt, replacing any previous one.
	Attach(ssid, secret string) error
	// Disconnect ends the current attempt; it reports nothing afterwards.
	Disconnect() error
}

// Uplink is the publish/subscribe session to the relay broker.
type Uplink interface {
	// Start opens a session to uri without waiting for it to connect.
	Start(uri string) error
	// Stop closes the session.
	Stop()
	// Publish returns the message id assigned to the publish.
	Publish(topic string, payload []byte, qos byte, retained bool) (uint16, error)
	Subscribe(topic string, qos byte) error
}

// Advertiser toggles the provisioning channel's visibility.
type Advertiser interface {
	StartAdvertising() error
	StopAdvertising() error
}

// Display renders two lines of status text.
type Display interface {
	Clear()
	ShowLine(line int, text string)
}

// SightingSink records discovered devices outside the uplink (history).
type SightingSink interface {
	RecordSighting(board, name, address string, rssi int)
}

// Logger defines the logging interface used by the coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopDisplay struct{}

func (noopDisplay) Clear()               {}
func (noopDisplay) ShowLine(int, string) {}
