package coordinator

import (
	"context"
	"fmt"

	"github.com/nerrad567/blescan-node/internal/settings"
)

// Slot names one provisioning characteristic. Its value is the settings key
// the slot is stored under.
type Slot string

// Provisioning slots.
const (
	SlotSSID      Slot = settings.KeySSID
	SlotPassword  Slot = settings.KeyPassword
	SlotBroker    Slot = settings.KeyBroker
	SlotBoardName Slot = settings.KeyBoardName
)

// BrokerScheme is prefixed to every relay address write.
const BrokerScheme = "mqtt://"

// Slots lists every provisioning slot.
var Slots = []Slot{SlotSSID, SlotPassword, SlotBroker, SlotBoardName}

// ParseSlot returns the slot for name.
func ParseSlot(name string) (Slot, error) {
	for _, s := range Slots {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// ApplyWrite stores one provisioning write and returns the stored value.
//
// Relay addresses are prefixed with BrokerScheme exactly once, at write
// time; an already prefixed value is prefixed again.
func ApplyWrite(ctx context.Context, store settings.Store, slot Slot, value string) (string, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return "", err
	}
	if slot == SlotBroker {
		value = BrokerScheme + value
	}
	if err := store.Set(ctx, string(slot), value); err != nil {
		return "", fmt.Errorf("storing %s: %w", slot, err)
	}
	return value, nil
}

func (c *Coordinator) onProvisioningWrite(ctx context.Context, w ProvisioningWrite) {
	stored, err := ApplyWrite(ctx, c.store, w.Slot, w.Value)
	if err != nil {
		c.metrics.provisioningWrite(w.Slot, false)
		c.logger.Error("provisioning write failed", "slot", string(w.Slot), "error", err)
		return
	}
	c.metrics.provisioningWrite(w.Slot, true)

	if w.Slot == SlotPassword {
		c.logger.Info("provisioning write stored", "slot", string(w.Slot), "length", len(stored))
	} else {
		c.logger.Info("provisioning write stored", "slot", string(w.Slot), "value", stored)
	}

	c.record = settings.Load(ctx, c.store, c.logger)

	if w.Slot == SlotSSID || w.Slot == SlotPassword {
		c.showStoredCredentials(ctx)
	}
}

// showStoredCredentials reads ssid and password back from the store and
// shows them. Nothing is shown until both have been stored.
func (c *Coordinator) showStoredCredentials(ctx context.Context) {
	ssid, ok, err := c.store.Get(ctx, settings.KeySSID)
	if err != nil || !ok {
		c.logger.Debug("credentials readback incomplete", "missing", settings.KeySSID, "error", err)
		return
	}
	password, ok, err := c.store.Get(ctx, settings.KeyPassword)
	if err != nil || !ok {
		c.logger.Debug("credentials readback incomplete", "missing", settings.KeyPassword, "error", err)
		return
	}

	c.display.Clear()
	c.display.ShowLine(lineTop, ssid)
	c.display.ShowLine(lineBottom, password)
}
