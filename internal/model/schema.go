package model

import "github.com/google/jsonschema-go/jsonschema"

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// closed forbids properties that are not declared.
func closed() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func nameSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: description,
		MinLength:   intPtr(1),
		MaxLength:   intPtr(MaxNameLength),
	}
}

// nullableObject describes a read-only relationship field that default-form
// output carries and that inbound documents may echo back.
func nullableObject(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"object", "null"}, Description: description}
}

func arrayOf(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "object"},
	}
}

// LocationSchema is the contract for location documents.
func LocationSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*jsonschema.Schema{
			"name":         nameSchema("Unique name of the location"),
			"sensors":      arrayOf("Sensors at this location (read-only)"),
			"measurements": arrayOf("Measurements taken at this location (read-only)"),
		},
		AdditionalProperties: closed(),
	}
}

// SensorSchema is the contract for sensor documents. The nested
// sensor_configuration object is checked against SensorConfigurationSchema
// separately.
func SensorSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "sensor_configuration"},
		Properties: map[string]*jsonschema.Schema{
			"name":                 nameSchema("Unique name of the sensor"),
			"sensor_configuration": {Type: "object", Description: "Sampling interval and alarm thresholds"},
			"location":             nullableObject("Location the sensor is linked to (read-only)"),
		},
		AdditionalProperties: closed(),
	}
}

// SensorConfigurationSchema is the contract for sensor_configuration objects.
func SensorConfigurationSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"interval"},
		Properties: map[string]*jsonschema.Schema{
			"interval": {
				Type:        "integer",
				Description: "Sampling interval in seconds",
				Minimum:     floatPtr(1),
			},
			"threshold_min": {
				Types:       []string{"number", "null"},
				Description: "Lower alarm limit",
			},
			"threshold_max": {
				Types:       []string{"number", "null"},
				Description: "Upper alarm limit",
			},
		},
		AdditionalProperties: closed(),
	}
}

// MeasurementSchema is the contract for measurement documents.
func MeasurementSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"temperature", "humidity", "timestamp"},
		Properties: map[string]*jsonschema.Schema{
			"temperature": {Type: "number", Description: "Temperature in degrees Celsius"},
			"humidity":    {Type: "number", Description: "Relative humidity in percent"},
			"timestamp": {
				Type:        "string",
				Format:      "date-time",
				Description: "Time of the reading",
			},
			"id":       {Type: "integer", Description: "Measurement identifier (read-only)"},
			"alarm":    {Type: "boolean", Description: "Reading is outside the sensor thresholds (read-only)"},
			"sensor":   nullableObject("Sensor that took the reading (read-only)"),
			"location": nullableObject("Location of the sensor at the time of the reading (read-only)"),
		},
		AdditionalProperties: closed(),
	}
}
