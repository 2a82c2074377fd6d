// Package display renders the node's two-line status text.
//
// The coordinator only calls Clear and ShowLine. Backends keep a 2-row frame
// truncated to the configured column count and present it somewhere:
//
//   - Log writes each changed frame as a structured log record.
//   - Console draws the frame as a bordered box with lipgloss.
//   - Hub hands the frame to a broadcaster (the API's websocket hub).
//   - Multi fans out to several backends.
package display
