// Package api implements the local HTTP API and WebSocket status stream of a
// blescan node.
//
// This package provides:
//   - GET /api/v1/health for the uplink, database and history clients
//   - GET /api/v1/status and /api/v1/system for the coordinator snapshot
//   - POST /api/v1/mode/toggle, a software equivalent of the mode button
//   - GET /api/v1/ws, a WebSocket stream of display frames and status
//   - GET /metrics, the Prometheus registry
//
// # WebSocket
//
// Clients subscribe to the "display" and "status" channels. The hub keeps the
// last message of each channel and replays it on subscribe.
//
// # Graceful Degradation
//
// The server runs without the uplink or the history database. Health reports
// the failing component with a 503 while status and the stream keep working.
package api
