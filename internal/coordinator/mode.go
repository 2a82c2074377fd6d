package coordinator

import (
	"context"

	"github.com/nerrad567/blescan-node/internal/settings"
)

// toggleMode flips between Normal and Provisioning.
//
// Both radio personalities are reconfigured in-process: entering
// Provisioning tears down the attach and the uplink before advertising, and
// leaving it stops advertising before attaching again.
func (c *Coordinator) toggleMode(ctx context.Context) {
	switch c.mode {
	case ModeNormal:
		c.enterProvisioning()
	case ModeProvisioning:
		c.enterNormal(ctx)
	}
	c.metrics.modeTransition(c.mode)
	c.logger.Info("mode changed", "mode", c.mode.String())
}

func (c *Coordinator) enterProvisioning() {
	c.mode = ModeProvisioning
	c.stopLifecycle()

	c.uplinkc.Stop()
	c.uplink = false

	c.display.Clear()
	c.display.ShowLine(lineTop, "Configuration")
	c.display.ShowLine(lineBottom, "mode")

	if err := c.advertiser.StartAdvertising(); err != nil {
		c.logger.Error("provisioning advertising failed", "error", err)
	}
}

func (c *Coordinator) enterNormal(ctx context.Context) {
	c.mode = ModeNormal

	if err := c.advertiser.StopAdvertising(); err != nil {
		c.logger.Warn("stopping provisioning advertising failed", "error", err)
	}

	c.record = settings.Load(ctx, c.store, c.logger)
	c.startConnect(c.record)
	c.startUplink()
}

func (c *Coordinator) startUplink() {
	if err := c.uplinkc.Start(c.record.BrokerURI); err != nil {
		c.logger.Error("uplink start failed", "broker", c.record.BrokerURI, "error", err)
	}
}
