package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteGlitchAttempt records a single glitch attempt.
//
// This is the primary method for recording campaign telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - runID: Campaign run identifier (tags the whole run)
//   - offset: Glitch offset in cycles after trigger
//   - width: Glitch width in cycles
//   - attempt: Attempt number at this setting (1-based)
//   - result: Outcome label ("success", "overshoot", "normal", "io_error")
//
// Example:
//
//	client.WriteGlitchAttempt("run-abc123", 1250, 40, 1, "success")
func (c *Client) WriteGlitchAttempt(runID string, offset, width, attempt int, result string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"glitch_attempt",
		map[string]string{
			"run_id": runID,
			"result": result,
		},
		map[string]interface{}{
			"offset":  offset,
			"width":   width,
			"attempt": attempt,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConditionMatch records a monitor condition firing.
//
// Parameters:
//   - condition: Condition name (e.g., "flag", "overshoot")
//   - textLen: Length of the matched text in bytes
//   - at: When the match was observed
func (c *Client) WriteConditionMatch(condition string, textLen int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"condition_match",
		map[string]string{
			"condition": condition,
		},
		map[string]interface{}{
			"text_len": textLen,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceHealth records a pool device's health snapshot.
//
// Parameters:
//   - deviceID: Pool device identifier
//   - health: Health label ("healthy", "degraded", "unhealthy", "unknown")
//   - totalFailures: Cumulative I/O failure count for the device
func (c *Client) WriteDeviceHealth(deviceID string, health string, totalFailures int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_health",
		map[string]string{
			"device_id": deviceID,
			"health":    health,
		},
		map[string]interface{}{
			"total_failures": totalFailures,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: Measurement name
//   - tags: Indexed key-value pairs (keep cardinality low)
//   - fields: The data itself
//
// Example:
//
//	client.WritePoint("rig_stats",
//	    map[string]string{"rig": "rig-001"},
//	    map[string]interface{}{"devices": 3, "campaigns_today": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replaying a saved run).
//
// Parameters:
//   - measurement: Measurement name
//   - tags: Indexed key-value pairs
//   - fields: The data itself
//   - timestamp: Exact time for the point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
