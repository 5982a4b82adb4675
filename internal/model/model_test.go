package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// fixture builds site-1 with sensor temp-1 and one reading, wired both ways.
func fixture() (*Location, *Sensor, *Measurement) {
	loc := &Location{ID: 1, Name: "site-1"}
	sensor := &Sensor{
		ID:            1,
		Name:          "temp-1",
		Location:      loc,
		Configuration: &SensorConfiguration{ID: 1, Interval: 900, ThresholdMin: f(15), ThresholdMax: f(22)},
	}
	m := &Measurement{
		ID:          7,
		Temperature: 20.5,
		Humidity:    45,
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Sensor:      sensor,
		Location:    loc,
	}
	loc.Sensors = []*Sensor{sensor}
	loc.Measurements = []*Measurement{m}
	sensor.Measurements = []*Measurement{m}
	return loc, sensor, m
}

func TestLocationSerialize(t *testing.T) {
	loc, _, _ := fixture()

	assert.Equal(t, Document{"name": "site-1"}, loc.Serialize(true))

	full := loc.Serialize(false)
	assert.Equal(t, "site-1", full["name"])
	assert.Equal(t, []Document{{"name": "temp-1"}}, full["sensors"])

	measurements, ok := full["measurements"].([]Document)
	require.True(t, ok)
	require.Len(t, measurements, 1)
	assert.Equal(t, 20.5, measurements[0]["temperature"])
	assert.NotContains(t, measurements[0], "sensor", "nested entities must be short form")
}

func TestLocationSerializeEmptyCollections(t *testing.T) {
	out, err := json.Marshal((&Location{Name: "empty"}).Serialize(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"empty","sensors":[],"measurements":[]}`, string(out))
}

func TestSensorSerialize(t *testing.T) {
	_, sensor, _ := fixture()

	assert.Equal(t, Document{"name": "temp-1"}, sensor.Serialize(true))

	out, err := json.Marshal(sensor.Serialize(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "temp-1",
		"location": {"name": "site-1"},
		"sensor_configuration": {"interval": 900, "threshold_min": 15, "threshold_max": 22}
	}`, string(out))

	unlinked, err := json.Marshal((&Sensor{Name: "loose"}).Serialize(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"loose","location":null,"sensor_configuration":null}`, string(unlinked))
}

func TestMeasurementSerialize(t *testing.T) {
	_, _, m := fixture()

	short := m.Serialize(true)
	assert.Equal(t, "2024-01-01T00:00:00Z", short["timestamp"])
	assert.NotContains(t, short, "location")
	assert.NotContains(t, short, "alarm")

	out, err := json.Marshal(m.Serialize(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 7,
		"temperature": 20.5,
		"humidity": 45,
		"timestamp": "2024-01-01T00:00:00Z",
		"sensor": {"name": "temp-1"},
		"location": {"name": "site-1"},
		"alarm": false
	}`, string(out))

	orphan := (&Measurement{Temperature: 1, Timestamp: time.Unix(0, 0)}).Serialize(false)
	assert.Nil(t, orphan["sensor"])
	assert.Nil(t, orphan["location"])
	assert.NotContains(t, orphan, "alarm")
}

func TestRoundTrip(t *testing.T) {
	loc, sensor, m := fixture()

	var gotLoc Location
	require.NoError(t, gotLoc.Deserialize(loc.Serialize(false)))
	assert.Equal(t, loc.Name, gotLoc.Name)

	var gotSensor Sensor
	require.NoError(t, gotSensor.Deserialize(sensor.Serialize(false)))
	assert.Equal(t, sensor.Name, gotSensor.Name)
	require.NotNil(t, gotSensor.Configuration)
	assert.Equal(t, 900, gotSensor.Configuration.Interval)
	assert.Equal(t, 15.0, *gotSensor.Configuration.ThresholdMin)
	assert.Equal(t, 22.0, *gotSensor.Configuration.ThresholdMax)

	var gotM Measurement
	require.NoError(t, gotM.Deserialize(m.Serialize(false)))
	assert.Equal(t, m.Temperature, gotM.Temperature)
	assert.Equal(t, m.Humidity, gotM.Humidity)
	assert.True(t, m.Timestamp.Equal(gotM.Timestamp))
}

func TestRoundTripThroughJSON(t *testing.T) {
	_, sensor, _ := fixture()

	raw, err := json.Marshal(sensor.Serialize(false))
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))

	var got Sensor
	require.NoError(t, got.Deserialize(doc))
	assert.Equal(t, 900, got.Configuration.Interval)
}

func TestSensorDeserializeKeepsConfigurationIdentity(t *testing.T) {
	_, sensor, _ := fixture()

	err := sensor.Deserialize(Document{
		"name":                 "temp-1b",
		"sensor_configuration": map[string]any{"interval": 60.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "temp-1b", sensor.Name)
	assert.Equal(t, int64(1), sensor.Configuration.ID)
	assert.Equal(t, 60, sensor.Configuration.Interval)
	assert.Nil(t, sensor.Configuration.ThresholdMin, "absent thresholds are cleared")
}

func TestDeserializeRejects(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		doc    Document
		want   string
	}{
		{"location without name", &Location{}, Document{}, "name is required"},
		{"location name too long", &Location{}, Document{"name": strings.Repeat("x", 65)}, "at most 64"},
		{"location name wrong type", &Location{}, Document{"name": 5.0}, "must be a string"},
		{"sensor inverted thresholds", &Sensor{}, Document{
			"name":                 "s",
			"sensor_configuration": Document{"interval": 1.0, "threshold_min": 30.0, "threshold_max": 10.0},
		}, "greater than threshold_max"},
		{"configuration fractional interval", &SensorConfiguration{}, Document{"interval": 1.5}, "must be an integer"},
		{"configuration zero interval", &SensorConfiguration{}, Document{"interval": 0.0}, "at least 1"},
		{"measurement bad timestamp", &Measurement{}, Document{
			"temperature": 1.0, "humidity": 2.0, "timestamp": "yesterday",
		}, "timestamp"},
		{"measurement missing humidity", &Measurement{}, Document{
			"temperature": 1.0, "timestamp": "2024-01-01T00:00:00Z",
		}, "humidity is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Deserialize(tt.doc)
			require.ErrorIs(t, err, ErrInvalidDocument)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-01-01T00:00:00Z", want: want},
		{in: "2024-01-01t00:00:00z", want: want},
		{in: "2024-01-01T02:00:00.5+02:00", want: want.Add(500 * time.Millisecond)},
		{in: "2024-01-01t00:00:00", want: want},
		{in: "2024-01-01T02:00:00+02:00", want: want},
		{in: "2024-01-01T00:00:00", want: want},
		{in: "2024-01-01T00:00:00.250", want: want.Add(250 * time.Millisecond)},
		{in: "2024-01-01", wantErr: true},
		{in: "2024-13-01T00:00:00Z", wantErr: true},
		{in: "not a time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestConfigurationOutside(t *testing.T) {
	c := &SensorConfiguration{Interval: 1, ThresholdMin: f(15), ThresholdMax: f(22)}
	assert.True(t, c.Outside(14.9))
	assert.False(t, c.Outside(15))
	assert.False(t, c.Outside(22))
	assert.True(t, c.Outside(22.1))

	open := &SensorConfiguration{Interval: 1}
	assert.False(t, open.Outside(-100))
}
