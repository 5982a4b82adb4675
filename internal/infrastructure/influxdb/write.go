package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

// SeriesName is the InfluxDB measurement name used for readings.
const SeriesName = "environment"

// measurementPoint converts a reading into a point. Tags are omitted for
// relations that no longer exist.
func measurementPoint(m *model.Measurement) *write.Point {
	tags := make(map[string]string, 2)
	if m.Sensor != nil {
		tags["sensor"] = m.Sensor.Name
	}
	if m.Location != nil {
		tags["location"] = m.Location.Name
	}

	return write.NewPoint(
		SeriesName,
		tags,
		map[string]any{
			"temperature": m.Temperature,
			"humidity":    m.Humidity,
		},
		m.Timestamp,
	)
}

// WriteMeasurement queues m for the next batch. It never blocks and is a
// no-op while disconnected.
func (c *Client) WriteMeasurement(m *model.Measurement) {
	if m == nil || !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(measurementPoint(m))
}
