// Package mqtt is the daemon's telemetry bus client.
//
// Condition matches, campaign progress, and run results go out over
// MQTT for dashboards and other lab tooling, and a control topic
// accepts campaign commands. The transport is optional: when the
// config disables MQTT the rest of the daemon runs unchanged.
//
// The client wraps paho.mqtt.golang and owns the connection
// lifecycle. Subscriptions are tracked locally and restored after a
// reconnect, so handlers registered once survive broker restarts. A
// retained Last Will marks the rig offline if the connection drops
// without a clean shutdown, and Close publishes the graceful
// equivalent before disconnecting. Reconnects back off exponentially
// between the configured initial and max delays.
//
// Topic strings come from the Topics builder rather than hand-written
// literals; see topics.go for the full layout under riglab/<rig_id>/.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.ControlCampaign(), 1,
//		func(topic string, payload []byte) error {
//			return handleControl(payload)
//		})
//
// Security: enable TLS whenever the broker is not on localhost, and
// keep anonymous access to local development only. Match event
// payloads can carry raw target output, so the broker sits inside the
// lab boundary, not on a shared network.
package mqtt
