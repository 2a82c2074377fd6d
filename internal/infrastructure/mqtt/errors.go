package mqtt

import "errors"

// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations without a live session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrInvalidBrokerURI is returned when a relay URI cannot be turned into a broker URL.
	ErrInvalidBrokerURI = errors.New("mqtt: invalid broker uri")

	// ErrPublishFailed is returned when a publish cannot be queued.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
