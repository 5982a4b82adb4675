package model

import "fmt"

// SensorConfiguration holds a sensor's sampling interval and alarm limits.
type SensorConfiguration struct {
	ID int64
	// Interval is the sampling period in seconds.
	Interval     int
	ThresholdMin *float64
	ThresholdMax *float64
}

// Serialize implements Entity. A configuration has a single form.
func (c *SensorConfiguration) Serialize(bool) Document {
	return Document{
		"interval":      c.Interval,
		"threshold_min": optional(c.ThresholdMin),
		"threshold_max": optional(c.ThresholdMax),
	}
}

// Deserialize implements Entity. Absent thresholds are cleared.
func (c *SensorConfiguration) Deserialize(doc Document) error {
	interval, err := doc.integer("interval")
	if err != nil {
		return err
	}
	if interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidDocument)
	}
	lo, err := doc.optionalNumber("threshold_min")
	if err != nil {
		return err
	}
	hi, err := doc.optionalNumber("threshold_max")
	if err != nil {
		return err
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%w: threshold_min %g is greater than threshold_max %g", ErrInvalidDocument, *lo, *hi)
	}

	c.Interval = interval
	c.ThresholdMin = lo
	c.ThresholdMax = hi
	return nil
}

// Outside reports whether v breaches either configured threshold.
func (c *SensorConfiguration) Outside(v float64) bool {
	if c.ThresholdMin != nil && v < *c.ThresholdMin {
		return true
	}
	return c.ThresholdMax != nil && v > *c.ThresholdMax
}
