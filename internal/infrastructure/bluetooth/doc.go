// Package bluetooth drives the node's BLE radio through tinygo.org/x/bluetooth.
//
// It provides the two short-range collaborators of the coordinator:
//
//   - Scanner reports nearby advertising devices (name, address, RSSI).
//     It scans continuously, or in windows scheduled with gocron when
//     bluetooth.scan_interval is set.
//   - Provisioner publishes a GATT service with four write-only
//     characteristics (ssid, password, broker, board_name) and toggles
//     advertising so a phone can provision the node.
//
// Both share the adapter returned by Enable. The adapter must be enabled once
// per process before either is started.
package bluetooth
