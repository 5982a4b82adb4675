package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
	_ "github.com/mokkiwahti/mokkiwahti-core/migrations"
)

func ptr(v float64) *float64 { return &v }

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "store.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return New(db)
}

// inTx runs fn in a committed transaction and fails the test on error.
func inTx(t *testing.T, st *Store, fn func(ctx context.Context, tx *Tx)) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, st.WithTx(ctx, func(tx *Tx) error {
		fn(ctx, tx)
		return nil
	}))
}

// seed creates testlocation-i, testsensor-i (interval i) and one
// measurement per sensor for i in 1..3, with each sensor linked to its
// location.
func seed(t *testing.T, st *Store) {
	t.Helper()

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		for i := 1; i <= 3; i++ {
			loc := &model.Location{Name: "testlocation-" + string(rune('0'+i))}
			require.NoError(t, tx.CreateLocation(ctx, loc))

			sensor := &model.Sensor{
				Name:          "testsensor-" + string(rune('0'+i)),
				Location:      loc,
				Configuration: &model.SensorConfiguration{Interval: i},
			}
			require.NoError(t, tx.CreateSensor(ctx, sensor))

			require.NoError(t, tx.CreateMeasurement(ctx, &model.Measurement{
				Temperature: float64(20 + i),
				Humidity:    float64(40 + i),
				Timestamp:   time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
				Sensor:      sensor,
			}))
		}
	})
}

func TestLocationCRUD(t *testing.T) {
	st := setupTestStore(t)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		loc := &model.Location{Name: "site-1"}
		require.NoError(t, tx.CreateLocation(ctx, loc))
		assert.NotZero(t, loc.ID)

		got, err := tx.LocationByName(ctx, "site-1")
		require.NoError(t, err)
		assert.Equal(t, loc.ID, got.ID)
		assert.Empty(t, got.Sensors)
		assert.NotNil(t, got.Sensors)

		got.Name = "site-renamed"
		require.NoError(t, tx.UpdateLocation(ctx, got))

		_, err = tx.LocationByName(ctx, "site-1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, tx.DeleteLocation(ctx, got))
		all, err := tx.Locations(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestLocationDuplicateName(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	ctx := context.Background()
	err := st.WithTx(ctx, func(tx *Tx) error {
		return tx.CreateLocation(ctx, &model.Location{Name: "testlocation-1"})
	})
	require.ErrorIs(t, err, ErrConflict)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "location with name \"testlocation-1\" already exists", conflict.Error())

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		all, err := tx.Locations(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3, "failed insert must not change the collection")

		// Renaming onto an existing name is also a conflict.
		loc, err := tx.LocationByName(ctx, "testlocation-2")
		require.NoError(t, err)
		loc.Name = "testlocation-3"
		assert.ErrorIs(t, tx.UpdateLocation(ctx, loc), ErrConflict)
	})
}

func TestLocationsLoadRelations(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		all, err := tx.Locations(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)

		for i, loc := range all {
			require.Len(t, loc.Sensors, 1, loc.Name)
			assert.Equal(t, "testsensor-"+string(rune('1'+i)), loc.Sensors[0].Name)
			require.Len(t, loc.Measurements, 1, loc.Name)
			assert.Equal(t, float64(21+i), loc.Measurements[0].Temperature)
		}
	})
}

func TestSensorCRUD(t *testing.T) {
	st := setupTestStore(t)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		sensor := &model.Sensor{
			Name:          "temp-1",
			Configuration: &model.SensorConfiguration{Interval: 900, ThresholdMin: ptr(15), ThresholdMax: ptr(22)},
		}
		require.NoError(t, tx.CreateSensor(ctx, sensor))
		assert.NotZero(t, sensor.ID)
		assert.NotZero(t, sensor.Configuration.ID)

		got, err := tx.SensorByName(ctx, "temp-1")
		require.NoError(t, err)
		assert.Nil(t, got.Location)
		require.NotNil(t, got.Configuration)
		assert.Equal(t, 900, got.Configuration.Interval)
		assert.Equal(t, 22.0, *got.Configuration.ThresholdMax)

		got.Name = "temp-2"
		got.Configuration.Interval = 60
		got.Configuration.ThresholdMax = nil
		require.NoError(t, tx.UpdateSensor(ctx, got))

		again, err := tx.SensorByName(ctx, "temp-2")
		require.NoError(t, err)
		assert.Equal(t, sensor.Configuration.ID, again.Configuration.ID, "configuration row is updated in place")
		assert.Equal(t, 60, again.Configuration.Interval)
		assert.Nil(t, again.Configuration.ThresholdMax)

		require.NoError(t, tx.DeleteSensor(ctx, again))
		_, err = tx.SensorByName(ctx, "temp-2")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateSensorAddsMissingConfiguration(t *testing.T) {
	st := setupTestStore(t)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		bare := &model.Sensor{Name: "bare"}
		require.NoError(t, tx.CreateSensor(ctx, bare))

		bare.Configuration = &model.SensorConfiguration{Interval: 30}
		require.NoError(t, tx.UpdateSensor(ctx, bare))

		got, err := tx.SensorByName(ctx, "bare")
		require.NoError(t, err)
		require.NotNil(t, got.Configuration)
		assert.Equal(t, 30, got.Configuration.Interval)
	})
}

func TestSensorDuplicateName(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	ctx := context.Background()
	err := st.WithTx(ctx, func(tx *Tx) error {
		return tx.CreateSensor(ctx, &model.Sensor{
			Name:          "testsensor-2",
			Configuration: &model.SensorConfiguration{Interval: 1},
		})
	})
	require.ErrorIs(t, err, ErrConflict)

	// The configuration inserted before the conflict was rolled back.
	inTx(t, st, func(ctx context.Context, tx *Tx) {
		var n int
		require.NoError(t, tx.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensor_configuration").Scan(&n))
		assert.Equal(t, 3, n)
	})
}

func TestLinkAndUnlink(t *testing.T) {
	st := setupTestStore(t)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		a := &model.Location{Name: "a"}
		b := &model.Location{Name: "b"}
		require.NoError(t, tx.CreateLocation(ctx, a))
		require.NoError(t, tx.CreateLocation(ctx, b))
		sensor := &model.Sensor{Name: "s", Configuration: &model.SensorConfiguration{Interval: 1}}
		require.NoError(t, tx.CreateSensor(ctx, sensor))

		require.NoError(t, tx.LinkSensor(ctx, a, sensor))
		require.NoError(t, tx.LinkSensor(ctx, a, sensor), "linking twice is idempotent")

		gotA, err := tx.LocationByName(ctx, "a")
		require.NoError(t, err)
		require.Len(t, gotA.Sensors, 1)
		assert.Equal(t, "s", gotA.Sensors[0].Name)

		gotS, err := tx.SensorByName(ctx, "s")
		require.NoError(t, err)
		require.NotNil(t, gotS.Location)
		assert.Equal(t, "a", gotS.Location.Name)

		// Linking to b moves the sensor.
		require.NoError(t, tx.LinkSensor(ctx, b, gotS))
		gotA, err = tx.LocationByName(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, gotA.Sensors)

		// Unlinking from a location it is not in fails and changes nothing.
		err = tx.UnlinkSensor(ctx, gotA, gotS)
		require.ErrorIs(t, err, ErrNotLinked)
		assert.EqualError(t, err, `sensor "s" is not linked to location "a"`)

		gotB, err := tx.LocationByName(ctx, "b")
		require.NoError(t, err)
		require.NoError(t, tx.UnlinkSensor(ctx, gotB, gotS))

		gotB, err = tx.LocationByName(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, gotB.Sensors)
		gotS, err = tx.SensorByName(ctx, "s")
		require.NoError(t, err)
		assert.Nil(t, gotS.Location)
	})
}

func TestMeasurementInheritsSensorLocation(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		sensor, err := tx.SensorByName(ctx, "testsensor-2")
		require.NoError(t, err)

		m := &model.Measurement{
			Temperature: 18,
			Humidity:    50,
			Timestamp:   time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
			Sensor:      sensor,
			Location:    &model.Location{ID: 999, Name: "ignored"},
		}
		require.NoError(t, tx.CreateMeasurement(ctx, m))

		got, err := tx.MeasurementByID(ctx, m.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Location)
		assert.Equal(t, "testlocation-2", got.Location.Name)
		assert.Equal(t, "testsensor-2", got.Sensor.Name)
		assert.True(t, m.Timestamp.Equal(got.Timestamp))

		bySensor, err := tx.MeasurementsBySensor(ctx, "testsensor-2")
		require.NoError(t, err)
		assert.Len(t, bySensor, 2)

		byLocation, err := tx.MeasurementsByLocation(ctx, "testlocation-2")
		require.NoError(t, err)
		assert.Len(t, byLocation, 2)
		assert.True(t, byLocation[0].Timestamp.Before(byLocation[1].Timestamp), "ordered by timestamp")
	})
}

func TestMeasurementUpdateAndDelete(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		all, err := tx.Measurements(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)

		m := all[0]
		m.Temperature = -5
		require.NoError(t, tx.UpdateMeasurement(ctx, m))

		got, err := tx.MeasurementByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, -5.0, got.Temperature)
		assert.Equal(t, "testsensor-1", got.Sensor.Name, "references are untouched")

		require.NoError(t, tx.DeleteMeasurement(ctx, got))
		_, err = tx.MeasurementByID(ctx, m.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, tx.DeleteMeasurement(ctx, got), ErrNotFound)
	})
}

func TestDeleteLocationNullsReferences(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		loc, err := tx.LocationByName(ctx, "testlocation-1")
		require.NoError(t, err)
		require.NoError(t, tx.DeleteLocation(ctx, loc))

		sensor, err := tx.SensorByName(ctx, "testsensor-1")
		require.NoError(t, err)
		assert.Nil(t, sensor.Location)

		ms, err := tx.MeasurementsBySensor(ctx, "testsensor-1")
		require.NoError(t, err)
		require.Len(t, ms, 1, "measurements survive their location")
		assert.Nil(t, ms[0].Location)
	})
}

func TestDeleteSensorKeepsMeasurements(t *testing.T) {
	st := setupTestStore(t)
	seed(t, st)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		sensor, err := tx.SensorByName(ctx, "testsensor-3")
		require.NoError(t, err)
		require.NoError(t, tx.DeleteSensor(ctx, sensor))

		ms, err := tx.MeasurementsByLocation(ctx, "testlocation-3")
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Nil(t, ms[0].Sensor)
	})
}

func TestNotFound(t *testing.T) {
	st := setupTestStore(t)

	inTx(t, st, func(ctx context.Context, tx *Tx) {
		_, err := tx.LocationByName(ctx, "nowhere")
		assert.EqualError(t, err, `location "nowhere" not found`)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = tx.SensorByName(ctx, "nothing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = tx.MeasurementByID(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExplicitTxRollback(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateLocation(ctx, &model.Location{Name: "temporary"}))
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback(), "second rollback is a no-op")

	tx, err = st.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck // Test cleanup

	all, err := tx.Locations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
}
