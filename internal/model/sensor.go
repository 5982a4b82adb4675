package model

import "fmt"

// Sensor is a physical device reporting measurements.
type Sensor struct {
	ID   int64
	Name string

	// Location is nil while the sensor is not linked.
	Location      *Location
	Configuration *SensorConfiguration
	Measurements  []*Measurement
}

// Serialize implements Entity.
func (s *Sensor) Serialize(short bool) Document {
	doc := Document{"name": s.Name}
	if short {
		return doc
	}

	doc["location"] = nil
	if s.Location != nil {
		doc["location"] = s.Location.Serialize(true)
	}
	doc["sensor_configuration"] = nil
	if s.Configuration != nil {
		doc["sensor_configuration"] = s.Configuration.Serialize(true)
	}
	return doc
}

// Deserialize implements Entity. It takes the name and, when present, the
// nested sensor_configuration. An existing configuration is updated in place
// so its identity is kept.
func (s *Sensor) Deserialize(doc Document) error {
	name, err := doc.str("name")
	if err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}

	confDoc, err := doc.Object("sensor_configuration")
	if err != nil {
		return err
	}

	var conf *SensorConfiguration
	if confDoc != nil {
		conf = &SensorConfiguration{}
		if s.Configuration != nil {
			*conf = *s.Configuration
		}
		if err := conf.Deserialize(confDoc); err != nil {
			return fmt.Errorf("sensor_configuration: %w", err)
		}
	}

	s.Name = name
	if conf != nil {
		s.Configuration = conf
	}
	return nil
}
