package model

// Location is a named place sensors can be linked to.
type Location struct {
	ID   int64
	Name string

	Sensors      []*Sensor
	Measurements []*Measurement
}

// Serialize implements Entity.
func (l *Location) Serialize(short bool) Document {
	doc := Document{"name": l.Name}
	if short {
		return doc
	}

	sensors := make([]Document, 0, len(l.Sensors))
	for _, s := range l.Sensors {
		sensors = append(sensors, s.Serialize(true))
	}
	measurements := make([]Document, 0, len(l.Measurements))
	for _, m := range l.Measurements {
		measurements = append(measurements, m.Serialize(true))
	}
	doc["sensors"] = sensors
	doc["measurements"] = measurements
	return doc
}

// Deserialize implements Entity. Only the name is taken from doc.
func (l *Location) Deserialize(doc Document) error {
	name, err := doc.str("name")
	if err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	l.Name = name
	return nil
}
