package wifi

import "strings"

type supplicantEvent int

const (
	eventNone supplicantEvent = iota
	eventAssociated
	eventLost
)

// Supplicant event markers. See wpa_ctrl.h.
var lostMarkers = []string{
	"CTRL-EVENT-DISCONNECTED",
	"CTRL-EVENT-SSID-TEMP-DISABLED",
	"CTRL-EVENT-NETWORK-NOT-FOUND",
	"CTRL-EVENT-ASSOC-REJECT",
	"CTRL-EVENT-AUTH-REJECT",
	"CTRL-EVENT-TERMINATING",
}

// classify maps one supplicant output line to an attach event.
func classify(line string) supplicantEvent {
	if strings.Contains(line, "CTRL-EVENT-CONNECTED") {
		return eventAssociated
	}
	for _, m := range lostMarkers {
		if strings.Contains(line, m) {
			return eventLost
		}
	}
	return eventNone
}
