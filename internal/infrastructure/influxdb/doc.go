// Package influxdb keeps a local history of Bluetooth sightings in InfluxDB.
//
// Every discovered device is written as a ble_sighting point tagged with the
// board, address and name, with the signal strength as the rssi field. The
// history is independent of the uplink: sightings are recorded whether or not
// the relay is reachable.
//
// The integration is optional. Connect returns ErrDisabled when it is switched
// off, and a nil *Client is safe to use (every write is dropped).
package influxdb
