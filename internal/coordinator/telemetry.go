package coordinator

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/nerrad567/blescan-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/blescan-node/internal/settings"
)

// IntroduceCommand is the only payload recognised on the command topic.
const IntroduceCommand = "introduce"

const (
	qosAtMostOnce  byte = 0
	qosAtLeastOnce byte = 1
)

var topics mqtt.Topics

type devicePayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	RSSI    int    `json:"rssi"`
}

// encodeDevice renders the discovery payload without HTML escaping.
func encodeDevice(d DeviceDiscovered) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(devicePayload{Name: d.Name, Address: d.Address, RSSI: d.RSSI}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (c *Coordinator) boardName(ctx context.Context) string {
	return settings.Lookup(ctx, c.store, settings.KeyBoardName, settings.DefaultBoardName, c.logger)
}

func (c *Coordinator) onUplinkConnected(ctx context.Context) {
	if c.mode == ModeProvisioning {
		c.logger.Debug("uplink connect ignored in provisioning mode")
		return
	}
	c.uplink = true
	c.logger.Info("uplink connected")

	if err := c.uplinkc.Subscribe(topics.BoardsCommand(), qosAtMostOnce); err != nil {
		c.logger.Warn("command subscription failed", "topic", topics.BoardsCommand(), "error", err)
	}
	c.publishIdentity(ctx)
}

func (c *Coordinator) onUplinkDisconnected() {
	if c.uplink {
		c.logger.Info("uplink disconnected")
	}
	c.uplink = false
}

func (c *Coordinator) onUplinkMessage(ctx context.Context, m UplinkMessage) {
	if m.Topic != topics.BoardsCommand() || string(m.Payload) != IntroduceCommand {
		return
	}
	c.publishIdentity(ctx)
}

// publishIdentity announces the board name on the boards topic.
func (c *Coordinator) publishIdentity(ctx context.Context) {
	board := c.boardName(ctx)
	id, err := c.uplinkc.Publish(topics.Boards(), []byte(board), qosAtLeastOnce, false)
	if err != nil {
		c.logger.Warn("identity publish failed", "board_name", board, "error", err)
		return
	}
	c.logger.Info("identity published", "board_name", board, "msg_id", id)
}

// onDeviceDiscovered records the sighting and relays it when the uplink is usable.
func (c *Coordinator) onDeviceDiscovered(ctx context.Context, d DeviceDiscovered) {
	board := c.boardName(ctx)

	if c.sightings != nil {
		c.sightings.RecordSighting(board, d.Name, d.Address, d.RSSI)
	}

	switch {
	case c.mode != ModeNormal:
		c.metrics.telemetry(telemetryDroppedMode)
		return
	case !c.uplink:
		c.metrics.telemetry(telemetryDroppedUplink)
		return
	}

	payload, err := encodeDevice(d)
	if err != nil {
		c.logger.Warn("device payload encoding failed", "error", err)
		c.metrics.telemetry(telemetryFailed)
		return
	}

	topic := topics.Devices(board)
	id, err := c.uplinkc.Publish(topic, payload, qosAtLeastOnce, false)
	if err != nil {
		c.logger.Warn("device publish failed", "topic", topic, "error", err)
		c.metrics.telemetry(telemetryFailed)
		return
	}
	c.metrics.telemetry(telemetryPublished)
	c.logger.Debug("device published", "topic", topic, "address", d.Address, "rssi", d.RSSI, "msg_id", id)
}
