package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

// Locations returns every location with its sensors and measurements.
func (t *Tx) Locations(ctx context.Context) ([]*model.Location, error) {
	const query = `SELECT id, name FROM location ORDER BY id`

	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	locations := []*model.Location{}
	byID := make(map[int64]*model.Location)
	for rows.Next() {
		loc := &model.Location{}
		if err := rows.Scan(&loc.ID, &loc.Name); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
		byID[loc.ID] = loc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	rows.Close() //nolint:errcheck // Released before the child queries below

	if err := t.attachLocationChildren(ctx, byID, "IS NOT NULL"); err != nil {
		return nil, err
	}
	return locations, nil
}

// LocationByName returns the named location with its sensors and measurements.
func (t *Tx) LocationByName(ctx context.Context, name string) (*model.Location, error) {
	const query = `SELECT id, name FROM location WHERE name = ?`

	loc := &model.Location{}
	err := t.tx.QueryRowContext(ctx, query, name).Scan(&loc.ID, &loc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "location", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("getting location %s: %w", name, err)
	}

	byID := map[int64]*model.Location{loc.ID: loc}
	if err := t.attachLocationChildren(ctx, byID, fmt.Sprintf("= %d", loc.ID)); err != nil {
		return nil, err
	}
	return loc, nil
}

// attachLocationChildren loads the sensors and measurements whose
// location_id matches cond and appends them to the locations in byID.
// cond is built internally, never from user input.
func (t *Tx) attachLocationChildren(ctx context.Context, byID map[int64]*model.Location, cond string) error {
	for _, loc := range byID {
		loc.Sensors = []*model.Sensor{}
		loc.Measurements = []*model.Measurement{}
	}
	if len(byID) == 0 {
		return nil
	}

	sensorRows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, location_id FROM sensor WHERE location_id `+cond+` ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying location sensors: %w", err)
	}
	for sensorRows.Next() {
		var (
			s     model.Sensor
			locID int64
		)
		if err := sensorRows.Scan(&s.ID, &s.Name, &locID); err != nil {
			sensorRows.Close() //nolint:errcheck // Error path
			return fmt.Errorf("scanning location sensor: %w", err)
		}
		if loc, ok := byID[locID]; ok {
			s.Location = loc
			loc.Sensors = append(loc.Sensors, &s)
		}
	}
	if err := sensorRows.Err(); err != nil {
		sensorRows.Close() //nolint:errcheck // Error path
		return fmt.Errorf("iterating location sensors: %w", err)
	}
	sensorRows.Close() //nolint:errcheck // Fully consumed

	measurements, err := t.queryMeasurements(ctx, `WHERE m.location_id `+cond)
	if err != nil {
		return err
	}
	for _, m := range measurements {
		if m.Location == nil {
			continue
		}
		if loc, ok := byID[m.Location.ID]; ok {
			m.Location = loc
			loc.Measurements = append(loc.Measurements, m)
		}
	}
	return nil
}

// CreateLocation inserts loc and sets its ID.
func (t *Tx) CreateLocation(ctx context.Context, loc *model.Location) error {
	const query = `INSERT INTO location (name) VALUES (?)`

	res, err := t.tx.ExecContext(ctx, query, loc.Name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return &ConflictError{Entity: "location", Field: "name", Value: loc.Name}
		}
		return fmt.Errorf("inserting location %s: %w", loc.Name, err)
	}
	loc.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading location id: %w", err)
	}
	if loc.Sensors == nil {
		loc.Sensors = []*model.Sensor{}
	}
	if loc.Measurements == nil {
		loc.Measurements = []*model.Measurement{}
	}
	return nil
}

// UpdateLocation writes loc's name.
func (t *Tx) UpdateLocation(ctx context.Context, loc *model.Location) error {
	const query = `UPDATE location SET name = ? WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, loc.Name, loc.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return &ConflictError{Entity: "location", Field: "name", Value: loc.Name}
		}
		return fmt.Errorf("updating location %d: %w", loc.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "location", Key: loc.Name}
	}
	return nil
}

// DeleteLocation removes loc. Sensors and measurements that referenced it
// keep existing with no location.
func (t *Tx) DeleteLocation(ctx context.Context, loc *model.Location) error {
	const query = `DELETE FROM location WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, loc.ID)
	if err != nil {
		return fmt.Errorf("deleting location %s: %w", loc.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "location", Key: loc.Name}
	}
	for _, s := range loc.Sensors {
		s.Location = nil
	}
	for _, m := range loc.Measurements {
		m.Location = nil
	}
	return nil
}

// LinkSensor makes loc the sensor's location. Linking a sensor that belongs
// to another location moves it; linking it again is a no-op.
func (t *Tx) LinkSensor(ctx context.Context, loc *model.Location, sensor *model.Sensor) error {
	const query = `UPDATE sensor SET location_id = ? WHERE id = ?`

	res, err := t.tx.ExecContext(ctx, query, loc.ID, sensor.ID)
	if err != nil {
		return fmt.Errorf("linking sensor %s to %s: %w", sensor.Name, loc.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotFoundError{Entity: "sensor", Key: sensor.Name}
	}

	if prev := sensor.Location; prev != nil && prev != loc {
		prev.Sensors = removeSensor(prev.Sensors, sensor.ID)
	}
	sensor.Location = loc
	loc.Sensors = append(removeSensor(loc.Sensors, sensor.ID), sensor)
	return nil
}

// UnlinkSensor clears the sensor's location if it is loc. It returns a
// NotLinkedError and changes nothing otherwise.
func (t *Tx) UnlinkSensor(ctx context.Context, loc *model.Location, sensor *model.Sensor) error {
	const query = `UPDATE sensor SET location_id = NULL WHERE id = ? AND location_id = ?`

	res, err := t.tx.ExecContext(ctx, query, sensor.ID, loc.ID)
	if err != nil {
		return fmt.Errorf("unlinking sensor %s from %s: %w", sensor.Name, loc.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always reports rows affected
		return &NotLinkedError{Location: loc.Name, Sensor: sensor.Name}
	}

	sensor.Location = nil
	loc.Sensors = removeSensor(loc.Sensors, sensor.ID)
	return nil
}

func removeSensor(sensors []*model.Sensor, id int64) []*model.Sensor {
	out := sensors[:0:0]
	for _, s := range sensors {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
