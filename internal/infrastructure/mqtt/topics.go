package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "mokkiwahti"

// Topics builds the topic names used under a common prefix.
//
//	topics := mqtt.NewTopics("mokkiwahti")
//	topics.SensorMeasurements("temp-1")
//	// Returns: "mokkiwahti/sensors/temp-1/measurements"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: mokkiwahti/system/status
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// SensorMeasurement returns the topic a single sensor publishes readings on.
//
// Example: mokkiwahti/sensors/temp-1/measurements
func (t Topics) SensorMeasurement(sensor string) string {
	return t.Prefix() + "/sensors/" + sensor + "/measurements"
}

// SensorMeasurements returns the wildcard topic covering every sensor.
//
// Example: mokkiwahti/sensors/+/measurements
func (t Topics) SensorMeasurements() string {
	return t.SensorMeasurement("+")
}

// SensorFromTopic extracts the sensor name from a measurement topic.
// ok is false when topic is not a measurement topic under this prefix.
func (t Topics) SensorFromTopic(topic string) (name string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix()+"/sensors/")
	if !found {
		return "", false
	}
	name, found = strings.CutSuffix(rest, "/measurements")
	if !found || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
