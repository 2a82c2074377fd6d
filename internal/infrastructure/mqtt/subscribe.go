package mqtt

// Subscribe requests a subscription on the live session and returns without
// waiting for the SUBACK. Messages are delivered to the OnMessage callback.
// The subscription lasts until the session ends; callers re-subscribe from
// their OnConnect callback.
//
// Parameters:
//   - topic: Topic filter, wildcards allowed
//   - qos: Requested Quality of Service level
//
// Returns:
//   - error: If the topic is invalid or no session is live
func (c *Client) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	client, ok := c.live()
	if !ok {
		return ErrNotConnected
	}

	token := client.Subscribe(topic, qos, nil)
	go c.watch(token, "subscribe", topic)
	return nil
}
