package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// maxPayloadSize caps outbound payloads.
const maxPayloadSize = 1 << 16

// Publish queues a message and returns its packet identifier without waiting
// for the broker. QoS 0 messages have identifier 0. Delivery failures are
// logged, not returned.
//
// Parameters:
//   - topic: Full topic path (e.g., "/room1/devices")
//   - payload: Message payload
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker keeps the message for new subscribers
//
// Returns:
//   - uint16: Packet identifier assigned by paho
//   - error: If the topic or payload is invalid or no session is live
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) (uint16, error) {
	if topic == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return 0, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	client, ok := c.live()
	if !ok {
		return 0, ErrNotConnected
	}

	token := client.Publish(topic, qos, retained, payload)
	var id uint16
	if pt, ok := token.(*pahomqtt.PublishToken); ok {
		id = pt.MessageID()
	}

	go c.watch(token, "publish", topic)
	return id, nil
}

// live returns the current paho client if it reports an open connection.
func (c *Client) live() (pahomqtt.Client, bool) {
	if !c.IsConnected() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, false
	}
	return c.client, true
}

// watch logs the outcome of a background operation.
func (c *Client) watch(token pahomqtt.Token, op, topic string) {
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.logger.Warn("MQTT operation not acknowledged", "op", op, "topic", topic, "timeout", defaultPublishTimeout)
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Warn("MQTT operation failed", "op", op, "topic", topic, "error", err)
		return
	}
	c.logger.Debug("MQTT operation acknowledged", "op", op, "topic", topic)
}
