// Package settings is the node's durable configuration store.
//
// The provisioned configuration record is four independent string slots
// (network name, network secret, relay URI and device name) stored under the
// keys ssid, password, broker and board_name. Each slot is written on its own,
// last write wins, and there is no multi-key transaction.
//
// Two Store implementations are provided: SQLiteStore for the running node
// and MemoryStore for tests and ephemeral runs. Load resolves the record and
// applies the compiled-in defaults for absent slots.
package settings
