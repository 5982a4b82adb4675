package influxdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/config"
	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

// recordingWriter captures points instead of sending them.
type recordingWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *recordingWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *recordingWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

func testMeasurement() *model.Measurement {
	return &model.Measurement{
		ID:          7,
		Temperature: 20.5,
		Humidity:    45,
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Sensor:      &model.Sensor{Name: "temp-1"},
		Location:    &model.Location{Name: "site-1"},
	}
}

func TestConnect_Disabled(t *testing.T) {
	client, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "mokkiwahti",
		Bucket:  "measurements",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestMeasurementPoint(t *testing.T) {
	m := testMeasurement()
	p := measurementPoint(m)

	if p.Name() != SeriesName {
		t.Errorf("Name() = %q, want %q", p.Name(), SeriesName)
	}
	if !p.Time().Equal(m.Timestamp) {
		t.Errorf("Time() = %v, want %v", p.Time(), m.Timestamp)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["sensor"] != "temp-1" || tags["location"] != "site-1" {
		t.Errorf("tags = %v", tags)
	}

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["temperature"] != 20.5 || fields["humidity"] != 45.0 {
		t.Errorf("fields = %v", fields)
	}
}

func TestMeasurementPoint_Orphaned(t *testing.T) {
	m := testMeasurement()
	m.Sensor, m.Location = nil, nil

	if tags := measurementPoint(m).TagList(); len(tags) != 0 {
		t.Errorf("TagList() = %v, want none", tags)
	}
}

func TestWriteMeasurement(t *testing.T) {
	w := &recordingWriter{}
	c := &Client{writeAPI: w, connected: true}

	c.WriteMeasurement(testMeasurement())
	c.WriteMeasurement(nil)
	c.Flush()

	if len(w.points) != 1 {
		t.Fatalf("wrote %d points, want 1", len(w.points))
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1", w.flushes)
	}
}

func TestWriteMeasurement_Disconnected(t *testing.T) {
	w := &recordingWriter{}
	c := &Client{writeAPI: w}

	c.WriteMeasurement(testMeasurement())
	c.Flush()

	if len(w.points) != 0 || w.flushes != 0 {
		t.Errorf("disconnected client wrote %d points, %d flushes", len(w.points), w.flushes)
	}
}

func TestHandleWriteErrors(t *testing.T) {
	c := &Client{}
	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	ch := make(chan error, 1)
	ch <- errors.New("bucket not found")
	close(ch)
	c.handleWriteErrors(ch)

	select {
	case err := <-got:
		if err.Error() != "bucket not found" {
			t.Errorf("callback got %v", err)
		}
	default:
		t.Fatal("callback not invoked")
	}
}

func TestClose_Nil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	if err := (&Client{}).HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
