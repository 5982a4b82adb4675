package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

const measurementColumns = `m.id, m.temperature, m.humidity, m.timestamp,
	s.id, s.name, l.id, l.name, c.id, c.interval, c.threshold_min, c.threshold_max
	FROM measurement m
	LEFT JOIN sensor s ON s.id = m.sensor_id
	LEFT JOIN location l ON l.id = m.location_id
	LEFT JOIN sensor_configuration c ON c.id = s.sensor_configuration_id`

func scanMeasurement(row scanner) (*model.Measurement, error) {
	var (
		m          model.Measurement
		ts         string
		sensorID   sql.NullInt64
		sensorName sql.NullString
		locID      sql.NullInt64
		locName    sql.NullString
		confID     sql.NullInt64
		interval   sql.NullInt64
		lo, hi     sql.NullFloat64
	)
	err := row.Scan(&m.ID, &m.Temperature, &m.Humidity, &ts,
		&sensorID, &sensorName, &locID, &locName, &confID, &interval, &lo, &hi)
	if err != nil {
		return nil, err
	}

	if m.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	if locID.Valid {
		m.Location = &model.Location{ID: locID.Int64, Name: locName.String}
	}
	if sensorID.Valid {
		m.Sensor = &model.Sensor{ID: sensorID.Int64, Name: sensorName.String}
		if confID.Valid {
			m.Sensor.Configuration = &model.SensorConfiguration{
				ID:           confID.Int64,
				Interval:     int(interval.Int64),
				ThresholdMin: floatOrNil(lo),
				ThresholdMax: floatOrNil(hi),
			}
		}
	}
	return &m, nil
}

// queryMeasurements runs a measurement select with the given WHERE clause,
// ordered by timestamp.
func (t *Tx) queryMeasurements(ctx context.Context, where string, args ...any) ([]*model.Measurement, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+measurementColumns+` `+where+` ORDER BY m.timestamp, m.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	measurements := []*model.Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating measurements: %w", err)
	}
	return measurements, nil
}

// Measurements returns every measurement.
func (t *Tx) Measurements(ctx context.Context) ([]*model.Measurement, error) {
	return t.queryMeasurements(ctx, "")
}

// MeasurementsBySensor returns the measurements taken by the named sensor.
func (t *Tx) MeasurementsBySensor(ctx context.Context, sensorName string) ([]*model.Measurement, error) {
	return t.queryMeasurements(ctx, `WHERE s.name = ?`, sensorName)
}

// MeasurementsByLocation returns the measurements recorded at the named location.
func (t *Tx) MeasurementsByLocation(ctx context.Context, locationName string) ([]*model.Measurement, error) {
	return t.queryMeasurements(ctx, `WHERE l.name = ?`, locationName)
}

// MeasurementByID returns a single measurement.
func (t *Tx) MeasurementByID(ctx context.Context, id int64) (*model.Measurement, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+measurementColumns+` WHERE m.id = ?`, id)
	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "measurement", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("getting measurement %d: %w", id, err)
	}
	return m, nil
}

// CreateMeasurement inserts m and sets its ID. The measurement's location is
// taken from its sensor, overriding any location already set on m.
func (t *Tx) CreateMeasurement(ctx context.Context, m *model.Measurement) error {
	m.Location = nil
	if m.Sensor != nil {
		m.Location = m.Sensor.Location
	}

	var sensorID sql.NullInt64
	if m.Sensor != nil {
		sensorID = nullID(m.Sensor.ID)
	}

	const query = `INSERT INTO measurement (temperature, humidity, timestamp, location_id, sensor_id)
		VALUES (?, ?, ?, ?, ?)`

	res, err := t.tx.ExecContext(ctx, query,
		m.Temperature, m.Humidity, formatTime(m.Timestamp), locationID(m.Location), sensorID)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading measurement id: %w", err)
	}
	return nil
}

// UpdateMeasurement writes m's readings and timestamp. Its sensor and
// location references are left unchanged.
func (t *Tx) UpdateMeasurement(ctx context.Context, m *model.Measurement) error {
	const query = `UPDATE measurement SET temperature = ?, humidity = ?, timestamp = ? WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, m.Temperature, m.Humidity, formatTime(m.Timestamp), m.ID)
	if err != nil {
		return fmt.Errorf("updating measurement %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "measurement", Key: strconv.FormatInt(m.ID, 10)}
	}
	return nil
}

// DeleteMeasurement removes m.
func (t *Tx) DeleteMeasurement(ctx context.Context, m *model.Measurement) error {
	const query = `DELETE FROM measurement WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, m.ID)
	if err != nil {
		return fmt.Errorf("deleting measurement %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "measurement", Key: strconv.FormatInt(m.ID, 10)}
	}
	return nil
}
