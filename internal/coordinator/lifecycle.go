package coordinator

import (
	"strconv"
	"time"

	"github.com/nerrad567/blescan-node/internal/settings"
)

// startConnect begins an attach with rec's credentials. It is valid only
// from Idle or Disconnected.
func (c *Coordinator) startConnect(rec settings.Record) {
	if c.state != StateIdle && c.state != StateDisconnected {
		c.logger.Debug("start connect ignored", "state", c.state.String())
		return
	}

	c.creds = rec
	if !rec.HasCredentials() {
		// Nothing to attach to until a network name is provisioned.
		c.state = StateDisconnected
		c.logger.Warn("no network credentials provisioned, not attaching")
		c.resolveInitial(false)
		return
	}

	c.attempt++
	c.state = StateConnecting
	c.showAttempt()
	c.issueAttach()
}

// onAttachSucceeded moves Connecting to Connected.
func (c *Coordinator) onAttachSucceeded() {
	if c.state != StateConnecting {
		c.logger.Debug("attach success ignored", "state", c.state.String())
		return
	}

	c.state = StateConnected
	c.attempt = 0
	c.metrics.attachOutcome(outcomeSucceeded)
	c.logger.Info("network attached", "ssid", c.creds.SSID)

	c.display.Clear()
	c.display.ShowLine(lineTop, "Connected Wi-Fi")

	c.resolveInitial(true)
}

// onAttachLost retries immediately in Normal mode and settles in Idle in
// Provisioning mode.
func (c *Coordinator) onAttachLost() {
	if c.state == StateIdle {
		c.logger.Debug("attach loss ignored, lifecycle stopped")
		return
	}

	c.metrics.attachOutcome(outcomeLost)
	c.resolveInitial(false)

	if c.mode == ModeProvisioning {
		c.state = StateIdle
		c.attempt = 0
		c.logger.Info("attach lost in provisioning mode, not retrying")
		return
	}

	c.attempt++
	c.state = StateConnecting
	c.logger.Info("attach lost, retrying", "attempt", c.attempt)
	c.showAttempt()
	c.issueAttach()
}

// stopLifecycle disconnects, moves to Idle and cancels pending retries.
func (c *Coordinator) stopLifecycle() {
	if c.state != StateIdle {
		if err := c.attacher.Disconnect(); err != nil {
			c.logger.Warn("network disconnect failed", "error", err)
		}
	}
	c.state = StateIdle
	c.attempt = 0
	c.gen++
}

// issueAttach hands the current credentials to the attacher. A request
// error counts as a loss after the retry delay.
func (c *Coordinator) issueAttach() {
	c.metrics.attachAttempt()

	err := c.attacher.Attach(c.creds.SSID, c.creds.Password)
	if err == nil {
		return
	}

	c.logger.Error("attach request failed", "attempt", c.attempt, "error", err)
	c.metrics.attachOutcome(outcomeRequestFailed)
	c.state = StateDisconnected
	c.resolveInitial(false)

	gen := c.gen
	ctx := c.runCtx
	time.AfterFunc(c.retryDelay, func() {
		if ctx == nil {
			return
		}
		_ = c.Post(ctx, retryAttach{gen: gen})
	})
}

func (c *Coordinator) showAttempt() {
	c.display.Clear()
	c.display.ShowLine(lineTop, "Connecting wifi")
	c.display.ShowLine(lineBottom, "Attempt: "+strconv.FormatUint(uint64(c.attempt), 10))
}
