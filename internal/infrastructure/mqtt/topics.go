package mqtt

import "fmt"

// Topic prefixes for the riglab telemetry bus.
//
// All topics use the flat scheme: riglab/{category}/{id}/{suffix}
// This matches what the telemetry publisher and any external
// dashboards subscribe to.
const (
	// TopicPrefix is the base for all riglab topics.
	TopicPrefix = "riglab"

	// TopicPrefixCampaign is the base for campaign telemetry topics.
	TopicPrefixCampaign = "riglab/campaign"

	// TopicPrefixEvent is the base for monitor event topics.
	TopicPrefixEvent = "riglab/event"

	// TopicPrefixDevice is the base for device pool topics.
	TopicPrefixDevice = "riglab/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "riglab/system"

	// TopicPrefixControl is the base for inbound control topics.
	TopicPrefixControl = "riglab/control"
)

// Topics provides builders for riglab MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	progressTopic := topics.CampaignProgress("run-abc123")
//	// Returns: "riglab/campaign/run-abc123/progress"
type Topics struct{}

// =============================================================================
// Campaign Topics
// =============================================================================

// CampaignProgress returns the topic for campaign progress updates.
//
// Example: riglab/campaign/run-abc123/progress
func (Topics) CampaignProgress(runID string) string {
	return fmt.Sprintf("%s/%s/progress", TopicPrefixCampaign, runID)
}

// CampaignSuccess returns the topic for individual glitch successes.
//
// Example: riglab/campaign/run-abc123/success
func (Topics) CampaignSuccess(runID string) string {
	return fmt.Sprintf("%s/%s/success", TopicPrefixCampaign, runID)
}

// CampaignResult returns the topic for the final campaign summary.
//
// Example: riglab/campaign/run-abc123/result
func (Topics) CampaignResult(runID string) string {
	return fmt.Sprintf("%s/%s/result", TopicPrefixCampaign, runID)
}

// =============================================================================
// Event Topics
// =============================================================================

// EventConditionMatch returns the topic for monitor condition matches.
//
// Example: riglab/event/condition/flag
func (Topics) EventConditionMatch(condition string) string {
	return fmt.Sprintf("%s/condition/%s", TopicPrefixEvent, condition)
}

// =============================================================================
// Device Topics
// =============================================================================

// DeviceStatus returns the topic for pool device status updates.
//
// Example: riglab/device/chipwhisperer-1a2b/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, deviceID)
}

// DeviceScan returns the topic for pool scan summaries.
//
// Example: riglab/device/scan
func (Topics) DeviceScan() string {
	return fmt.Sprintf("%s/scan", TopicPrefixDevice)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
// The LWT is registered on this topic so subscribers see an offline
// payload when the rig drops off the broker.
//
// Example: riglab/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Control Topics
// =============================================================================

// ControlCampaign returns the inbound campaign control topic.
// Payloads are JSON commands, currently {"action":"cancel"}.
//
// Example: riglab/control/campaign
func (Topics) ControlCampaign() string {
	return fmt.Sprintf("%s/campaign", TopicPrefixControl)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCampaignProgress returns a pattern matching progress for every run.
//
// Pattern: riglab/campaign/+/progress
func (Topics) AllCampaignProgress() string {
	return fmt.Sprintf("%s/+/progress", TopicPrefixCampaign)
}

// AllConditionMatches returns a pattern matching all condition match events.
//
// Pattern: riglab/event/condition/+
func (Topics) AllConditionMatches() string {
	return fmt.Sprintf("%s/condition/+", TopicPrefixEvent)
}

// AllDeviceStatus returns a pattern matching all device status updates.
//
// Pattern: riglab/device/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}

// AllTopics returns a pattern matching all riglab topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: riglab/#
func (Topics) AllTopics() string {
	return "riglab/#"
}
