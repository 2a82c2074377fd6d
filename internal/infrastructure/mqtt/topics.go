package mqtt

import "fmt"

// Topics provides builders for the relay's topic contract.
//
//	/boards                  identity announcements, payload = device name
//	/boards_command          control topic, "introduce" asks boards to announce
//	/{device_name}/devices   discovery reports
type Topics struct{}

// Boards returns the identity announcement topic.
func (Topics) Boards() string {
	return "/boards"
}

// BoardsCommand returns the control topic.
func (Topics) BoardsCommand() string {
	return "/boards_command"
}

// Devices returns the discovery report topic for a device name.
//
// Example: /room1/devices
func (Topics) Devices(deviceName string) string {
	return fmt.Sprintf("/%s/devices", deviceName)
}

// Status returns the retained online/offline topic for a client.
//
// Example: /boards/blescan-1a2b3c4d/status
func (Topics) Status(clientID string) string {
	return fmt.Sprintf("/boards/%s/status", clientID)
}
