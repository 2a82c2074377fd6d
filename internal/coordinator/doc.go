// Package coordinator is the node's connectivity and mode state machine.
//
// Every asynchronous producer (the Wi-Fi attach driver, the BLE provisioning
// service, the BLE scanner, the MQTT uplink, the mode button and the HTTP API)
// posts events into one buffered queue. A single goroutine started by Run
// drains the queue and is the only writer of the three pieces of shared
// state:
//
//   - connectivity: Idle, Connecting(attempt), Connected or Disconnected
//   - mode: Normal or Provisioning (initially Normal)
//   - uplink: whether the MQTT session is up
//
// Events from one producer are handled in the order they were posted. There
// is no ordering across producers.
//
// # Attach lifecycle
//
// In Normal mode a lost attach is retried immediately with the credentials
// loaded when the connect started, forever, with no backoff. Entering
// Provisioning mode stops the attach and cancels retries. The first attach
// outcome after boot releases WaitInitialAttach.
//
// # Telemetry
//
// Discovered devices are published to /{board_name}/devices only while the
// uplink is connected and the node is in Normal mode; otherwise they are
// dropped. The board name is read from the store for every publish so a
// provisioning write takes effect without a restart.
//
// # Usage
//
//	c := coordinator.New(coordinator.Deps{...}, coordinator.Options{...})
//	go c.Run(ctx)
//	connected, err := c.WaitInitialAttach(ctx, timeout)
//	...
//	_ = c.Post(ctx, coordinator.ModeToggleRequested{})
package coordinator
