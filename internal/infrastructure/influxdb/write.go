package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// SightingMeasurement is the measurement name for discovery history.
const SightingMeasurement = "ble_sighting"

// RecordSighting writes one discovered device. It is a no-op when the client
// is not connected.
//
// Parameters:
//   - board: Configured device name of this node
//   - name: Advertised name of the discovered device
//   - address: Colon-hex MAC address
//   - rssi: Received signal strength in dBm
func (c *Client) RecordSighting(board, name, address string, rssi int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(sightingPoint(board, name, address, rssi, time.Now()))
}

func sightingPoint(board, name, address string, rssi int, ts time.Time) *write.Point {
	return write.NewPoint(
		SightingMeasurement,
		map[string]string{
			"board":   board,
			"address": address,
			"name":    name,
		},
		map[string]interface{}{
			"rssi": rssi,
		},
		ts,
	)
}
