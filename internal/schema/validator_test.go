package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

func decode(t *testing.T, raw string) model.Document {
	t.Helper()

	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestLocationValidation(t *testing.T) {
	set := Entities()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"site-1"}`, false},
		{"get output put back", `{"name":"site-1","sensors":[{"name":"temp-1"}],"measurements":[]}`, false},
		{"missing name", `{}`, true},
		{"wrong type", `{"name":12}`, true},
		{"empty name", `{"name":""}`, true},
		{"name too long", `{"name":"` + strings.Repeat("a", 65) + `"}`, true},
		{"name at limit", `{"name":"` + strings.Repeat("a", 64) + `"}`, false},
		{"unknown field", `{"name":"site-1","owner":"me"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := set.Location.Validate(decode(t, tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSensorValidation(t *testing.T) {
	set := Entities()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"temp-1","sensor_configuration":{"interval":900,"threshold_min":15.0,"threshold_max":22.0}}`, false},
		{"null thresholds", `{"name":"temp-1","sensor_configuration":{"interval":900,"threshold_min":null,"threshold_max":null}}`, false},
		{"with location echo", `{"name":"temp-1","location":{"name":"site-1"},"sensor_configuration":{"interval":60}}`, false},
		{"missing configuration", `{"name":"temp-1"}`, true},
		{"null configuration", `{"name":"temp-1","sensor_configuration":null}`, true},
		{"missing interval", `{"name":"temp-1","sensor_configuration":{"threshold_min":1}}`, true},
		{"fractional interval", `{"name":"temp-1","sensor_configuration":{"interval":1.5}}`, true},
		{"zero interval", `{"name":"temp-1","sensor_configuration":{"interval":0}}`, true},
		{"string threshold", `{"name":"temp-1","sensor_configuration":{"interval":5,"threshold_max":"hot"}}`, true},
		{"unknown nested field", `{"name":"temp-1","sensor_configuration":{"interval":5,"unit":"C"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := set.ValidateSensor(decode(t, tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMeasurementValidation(t *testing.T) {
	set := Entities()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid offsetless", body: `{"temperature":20.5,"humidity":45.0,"timestamp":"2024-01-01T00:00:00"}`},
		{name: "valid rfc3339", body: `{"temperature":20.5,"humidity":45,"timestamp":"2024-01-01T00:00:00+02:00"}`},
		{name: "missing timestamp", body: `{"temperature":20.5,"humidity":45}`, wantErr: "measurement"},
		{name: "string temperature", body: `{"temperature":"20.5","humidity":45,"timestamp":"2024-01-01T00:00:00Z"}`, wantErr: "measurement"},
		{name: "invalid date-time", body: `{"temperature":20.5,"humidity":45,"timestamp":"01/01/2024"}`, wantErr: "not a valid date-time"},
		{name: "unknown field", body: `{"temperature":20.5,"humidity":45,"timestamp":"2024-01-01T00:00:00Z","pressure":1013}`, wantErr: "measurement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := set.Measurement.Validate(decode(t, tt.body))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNilDocument(t *testing.T) {
	err := Entities().Location.Validate(nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSerializedDocumentsValidate(t *testing.T) {
	set := Entities()

	loc := &model.Location{Name: "site-1"}
	sensor := &model.Sensor{Name: "temp-1", Location: loc, Configuration: &model.SensorConfiguration{Interval: 900}}
	loc.Sensors = []*model.Sensor{sensor}

	for name, tc := range map[string]struct {
		doc      model.Document
		validate func(model.Document) error
	}{
		"location": {loc.Serialize(false), set.Location.Validate},
		"sensor":   {sensor.Serialize(false), set.ValidateSensor},
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(tc.doc)
			require.NoError(t, err)
			assert.NoError(t, tc.validate(decode(t, string(raw))))
		})
	}
}
