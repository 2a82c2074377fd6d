package coordinator

// Mode is the operating mode.
type Mode int

const (
	// ModeNormal attaches to the network and relays telemetry.
	ModeNormal Mode = iota
	// ModeProvisioning accepts configuration over BLE.
	ModeProvisioning
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeProvisioning:
		return "provisioning"
	default:
		return "unknown"
	}
}

// ConnState is the wide-area attach state.
type ConnState int

const (
	// StateIdle means no attach is wanted.
	StateIdle ConnState = iota
	// StateConnecting means an attach attempt is in flight.
	StateConnecting
	// StateConnected means the node is attached.
	StateConnected
	// StateDisconnected means an attach is wanted but none is in flight.
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the coordinator state.
type Snapshot struct {
	Mode            Mode      `json:"-"`
	ModeName        string    `json:"mode"`
	State           ConnState `json:"-"`
	StateName       string    `json:"connectivity"`
	Attempt         uint32    `json:"attempt"`
	UplinkConnected bool      `json:"uplink_connected"`
	BoardName       string    `json:"board_name"`
	BrokerURI       string    `json:"broker_uri"`
	SSID            string    `json:"ssid"`
}
