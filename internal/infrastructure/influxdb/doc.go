// Package influxdb records time-series telemetry from campaigns.
//
// It wraps influxdb-client-go v2 behind a small client that the
// campaign runner writes to: one point per glitch attempt (offset,
// width, outcome), one per monitor match, plus periodic pool health.
//
// The attempt series is what makes parameter-space heatmaps possible:
// plot offset against width, coloured by result, and the target's
// vulnerable window shows up visually.
//
// Connect validates the config, pings the server, and starts a
// background drain of the write API's error channel:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	client.WriteGlitchAttempt("run-abc123", 1250, 40, 1, "success")
//
// Writes go through the non-blocking batched write API, sized by the
// batch_size and flush_interval config fields. A sweep can produce
// thousands of attempts per minute and the write path must never sit
// between Fire and the settle window, so nothing here blocks on the
// network. Batch errors surface through the SetOnError callback
// rather than a return value; only Connect, Close, and HealthCheck
// report errors directly. The client is safe for concurrent use.
package influxdb
