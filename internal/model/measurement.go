package model

import (
	"fmt"
	"time"
)

// Measurement is a single temperature and humidity reading.
type Measurement struct {
	ID          int64
	Temperature float64
	Humidity    float64
	Timestamp   time.Time

	// Sensor and Location are nil once the referenced row is deleted.
	// Location is copied from the sensor when the measurement is created.
	Sensor   *Sensor
	Location *Location
}

// Alarm reports whether the temperature is outside the thresholds of the
// sensor's configuration. ok is false when no configuration is known.
func (m *Measurement) Alarm() (alarm, ok bool) {
	if m.Sensor == nil || m.Sensor.Configuration == nil {
		return false, false
	}
	return m.Sensor.Configuration.Outside(m.Temperature), true
}

// Serialize implements Entity.
func (m *Measurement) Serialize(short bool) Document {
	doc := Document{
		"temperature": m.Temperature,
		"humidity":    m.Humidity,
		"timestamp":   FormatTimestamp(m.Timestamp),
	}
	if m.ID != 0 {
		doc["id"] = m.ID
	}
	if short {
		return doc
	}

	doc["sensor"] = nil
	if m.Sensor != nil {
		doc["sensor"] = m.Sensor.Serialize(true)
	}
	doc["location"] = nil
	if m.Location != nil {
		doc["location"] = m.Location.Serialize(true)
	}
	if alarm, ok := m.Alarm(); ok {
		doc["alarm"] = alarm
	}
	return doc
}

// Deserialize implements Entity. Relationship fields in doc are ignored.
func (m *Measurement) Deserialize(doc Document) error {
	temperature, err := doc.number("temperature")
	if err != nil {
		return err
	}
	humidity, err := doc.number("humidity")
	if err != nil {
		return err
	}
	raw, err := doc.str("timestamp")
	if err != nil {
		return err
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return fmt.Errorf("%w: timestamp: %w", ErrInvalidDocument, err)
	}

	m.Temperature = temperature
	m.Humidity = humidity
	m.Timestamp = ts
	return nil
}
