package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

const sensorColumns = `s.id, s.name, l.id, l.name, c.id, c.interval, c.threshold_min, c.threshold_max
	FROM sensor s
	LEFT JOIN location l ON l.id = s.location_id
	LEFT JOIN sensor_configuration c ON c.id = s.sensor_configuration_id`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSensor(row scanner) (*model.Sensor, error) {
	var (
		s        model.Sensor
		locID    sql.NullInt64
		locName  sql.NullString
		confID   sql.NullInt64
		interval sql.NullInt64
		lo, hi   sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.Name, &locID, &locName, &confID, &interval, &lo, &hi); err != nil {
		return nil, err
	}
	if locID.Valid {
		s.Location = &model.Location{ID: locID.Int64, Name: locName.String}
	}
	if confID.Valid {
		s.Configuration = &model.SensorConfiguration{
			ID:           confID.Int64,
			Interval:     int(interval.Int64),
			ThresholdMin: floatOrNil(lo),
			ThresholdMax: floatOrNil(hi),
		}
	}
	return &s, nil
}

// Sensors returns every sensor with its location and configuration.
func (t *Tx) Sensors(ctx context.Context) ([]*model.Sensor, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+sensorColumns+` ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	sensors := []*model.Sensor{}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// SensorByName returns the named sensor with its location and configuration.
func (t *Tx) SensorByName(ctx context.Context, name string) (*model.Sensor, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+sensorColumns+` WHERE s.name = ?`, name)
	s, err := scanSensor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "sensor", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("getting sensor %s: %w", name, err)
	}
	return s, nil
}

// CreateSensor inserts s and its configuration, setting both IDs. A set
// s.Location is stored as the sensor's location.
func (t *Tx) CreateSensor(ctx context.Context, s *model.Sensor) error {
	if s.Configuration != nil {
		if err := t.insertConfiguration(ctx, s.Configuration); err != nil {
			return err
		}
	}

	const query = `INSERT INTO sensor (name, location_id, sensor_configuration_id) VALUES (?, ?, ?)`

	res, err := t.tx.ExecContext(ctx, query, s.Name, locationID(s.Location), configurationID(s.Configuration))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return &ConflictError{Entity: "sensor", Field: "name", Value: s.Name}
		}
		return fmt.Errorf("inserting sensor %s: %w", s.Name, err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sensor id: %w", err)
	}
	return nil
}

// UpdateSensor writes s's name and configuration. A configuration without
// an ID is inserted and attached to the sensor.
func (t *Tx) UpdateSensor(ctx context.Context, s *model.Sensor) error {
	if c := s.Configuration; c != nil {
		if c.ID == 0 {
			if err := t.insertConfiguration(ctx, c); err != nil {
				return err
			}
		} else if err := t.updateConfiguration(ctx, c); err != nil {
			return err
		}
	}

	const query = `UPDATE sensor SET name = ?, sensor_configuration_id = ? WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, s.Name, configurationID(s.Configuration), s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return &ConflictError{Entity: "sensor", Field: "name", Value: s.Name}
		}
		return fmt.Errorf("updating sensor %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "sensor", Key: s.Name}
	}
	return nil
}

// DeleteSensor removes s. Its measurements and configuration are kept;
// measurements lose their sensor reference.
func (t *Tx) DeleteSensor(ctx context.Context, s *model.Sensor) error {
	const query = `DELETE FROM sensor WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, s.ID)
	if err != nil {
		return fmt.Errorf("deleting sensor %s: %w", s.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "sensor", Key: s.Name}
	}
	if s.Location != nil {
		s.Location.Sensors = removeSensor(s.Location.Sensors, s.ID)
		s.Location = nil
	}
	return nil
}

func (t *Tx) insertConfiguration(ctx context.Context, c *model.SensorConfiguration) error {
	const query = `INSERT INTO sensor_configuration (interval, threshold_min, threshold_max) VALUES (?, ?, ?)`

	res, err := t.tx.ExecContext(ctx, query, c.Interval, nullFloat(c.ThresholdMin), nullFloat(c.ThresholdMax))
	if err != nil {
		return fmt.Errorf("inserting sensor configuration: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sensor configuration id: %w", err)
	}
	return nil
}

func (t *Tx) updateConfiguration(ctx context.Context, c *model.SensorConfiguration) error {
	const query = `UPDATE sensor_configuration SET interval = ?, threshold_min = ?, threshold_max = ? WHERE id = ?`

	if _, err := t.tx.ExecContext(ctx, query, c.Interval, nullFloat(c.ThresholdMin), nullFloat(c.ThresholdMax), c.ID); err != nil {
		return fmt.Errorf("updating sensor configuration %d: %w", c.ID, err)
	}
	return nil
}

func locationID(l *model.Location) sql.NullInt64 {
	if l == nil {
		return sql.NullInt64{}
	}
	return nullID(l.ID)
}

func configurationID(c *model.SensorConfiguration) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return nullID(c.ID)
}
