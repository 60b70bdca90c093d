package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads at 1MB, in line with common
// broker defaults. Campaign telemetry is far below this; the cap guards
// against a bug marshalling something enormous.
const maxPayloadSize = 1 << 20

// Publish sends one message.
//
// QoS 0 is fire-and-forget (used for high-rate progress updates), QoS 1
// guarantees delivery with possible duplicates, QoS 2 exactly once.
// Retained messages are stored by the broker and handed to every new
// subscriber; use them for state (device status, campaign results) and
// never for commands.
//
// Input validation happens before the connection check, so callers get
// ErrInvalidTopic/ErrInvalidQoS for bad arguments even when offline.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes retained state at the configured default
// QoS. Used for per-device status and campaign result topics.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
