// Package logging provides structured logging for the blescan node.
//
// This package wraps Go's standard log/slog package. Every record carries
// service and version attributes; packages get a child logger through
// Component so their records can be filtered by component.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("wifi").Info("attach requested", "attempt", 3)
//
// Never log the network secret. Provisioning writes to the password slot are
// logged by length only.
package logging
