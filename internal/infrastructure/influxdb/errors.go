package influxdb

import "errors"

// Sentinel errors; check with errors.Is.
var (
	// ErrNotConnected means an operation ran against a closed client.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed means the initial ping did not succeed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled means the integration is switched off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
