package settings

import (
	"context"
)

// Logger receives read failures during Load. *slog.Logger satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
}

// Compiled-in fallbacks for absent slots.
const (
	DefaultBoardName = "pokoj_1"
	DefaultBrokerURI = "mqtt://192.168.241.246"
)

// Record is the provisioned configuration.
type Record struct {
	SSID      string
	Password  string
	BrokerURI string
	BoardName string
}

// HasCredentials reports whether a network name has been provisioned.
// An empty secret is allowed (open network).
func (r Record) HasCredentials() bool {
	return r.SSID != ""
}

// Load reads the record from store. Read failures are logged and resolve to
// the slot's default, like an absent key.
func Load(ctx context.Context, store Store, logger Logger) Record {
	return Record{
		SSID:      Lookup(ctx, store, KeySSID, "", logger),
		Password:  Lookup(ctx, store, KeyPassword, "", logger),
		BrokerURI: Lookup(ctx, store, KeyBroker, DefaultBrokerURI, logger),
		BoardName: Lookup(ctx, store, KeyBoardName, DefaultBoardName, logger),
	}
}

// Lookup returns the value under key, or def when it is absent or unreadable.
func Lookup(ctx context.Context, store Store, key, def string, logger Logger) string {
	v, ok, err := store.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("setting read failed, using default", "key", key, "error", err)
		}
		return def
	}
	if !ok {
		return def
	}
	return v
}
