package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

// ErrValidation wraps every rejection so callers can map it to 400.
var ErrValidation = errors.New("validation failed")

// Validator checks documents against one resolved schema.
type Validator struct {
	name     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// New resolves s. name is used in error messages.
func New(name string, s *jsonschema.Schema) (*Validator, error) {
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("resolving %s schema: %w", name, err)
	}
	return &Validator{name: name, schema: s, resolved: resolved}, nil
}

// MustNew is New for schemas known at compile time.
func MustNew(name string, s *jsonschema.Schema) *Validator {
	v, err := New(name, s)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks doc. doc must be the result of decoding JSON into
// map[string]any (or model.Document).
func (v *Validator) Validate(doc model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: %s document must be a JSON object", ErrValidation, v.name)
	}
	if err := v.resolved.Validate(map[string]any(doc)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrValidation, v.name, err)
	}
	if err := checkFormats(v.schema, doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrValidation, v.name, err)
	}
	return nil
}

// checkFormats enforces "format": "date-time" on top-level string properties.
func checkFormats(s *jsonschema.Schema, doc model.Document) error {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if s.Properties[key].Format != "date-time" {
			continue
		}
		raw, ok := doc[key].(string)
		if !ok {
			continue
		}
		if _, err := model.ParseTimestamp(raw); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
	}
	return nil
}

// Set holds a validator per entity type.
type Set struct {
	Location            *Validator
	Sensor              *Validator
	SensorConfiguration *Validator
	Measurement         *Validator
}

// Entities builds validators for the model schemas.
func Entities() *Set {
	return &Set{
		Location:            MustNew("location", model.LocationSchema()),
		Sensor:              MustNew("sensor", model.SensorSchema()),
		SensorConfiguration: MustNew("sensor_configuration", model.SensorConfigurationSchema()),
		Measurement:         MustNew("measurement", model.MeasurementSchema()),
	}
}

// ValidateSensor validates a sensor document and its nested configuration.
func (s *Set) ValidateSensor(doc model.Document) error {
	if err := s.Sensor.Validate(doc); err != nil {
		return err
	}
	conf, err := doc.Object("sensor_configuration")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.SensorConfiguration.Validate(conf)
}
