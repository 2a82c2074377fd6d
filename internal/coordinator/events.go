package coordinator

// Event is one input to the state machine. The set is closed: only the types
// in this file implement it.
type Event interface {
	eventName() string
}

// ModeToggleRequested is one debounced actuation of the mode control.
type ModeToggleRequested struct{}

// AttachSucceeded reports that the wide-area attach completed.
type AttachSucceeded struct{}

// AttachLost reports a disconnect or a failed attach attempt.
type AttachLost struct{}

// ProvisioningWrite is one completed write to a provisioning slot.
type ProvisioningWrite struct {
	Slot  Slot
	Value string
}

// DeviceDiscovered is one named device seen by the scanner.
type DeviceDiscovered struct {
	Name    string
	Address string
	RSSI    int
}

// UplinkConnected reports that the relay session is up.
type UplinkConnected struct{}

// UplinkDisconnected reports that the relay session went down.
type UplinkDisconnected struct{}

// UplinkMessage is a message received on a subscribed topic.
type UplinkMessage struct {
	Topic   string
	Payload []byte
}

// retryAttach re-issues an attach whose request failed synchronously.
// gen ties it to the lifecycle run that scheduled it.
type retryAttach struct {
	gen uint64
}

func (ModeToggleRequested) eventName() string { return "mode_toggle" }
func (AttachSucceeded) eventName() string     { return "attach_succeeded" }
func (AttachLost) eventName() string          { return "attach_lost" }
func (ProvisioningWrite) eventName() string   { return "provisioning_write" }
func (DeviceDiscovered) eventName() string    { return "device_discovered" }
func (UplinkConnected) eventName() string     { return "uplink_connected" }
func (UplinkDisconnected) eventName() string  { return "uplink_disconnected" }
func (UplinkMessage) eventName() string       { return "uplink_message" }
func (retryAttach) eventName() string         { return "retry_attach" }
