// Package store persists Mökkiwahti entities in SQLite.
//
// All reads and writes go through a Tx so that a request (or an ingested
// message) is applied all-or-nothing. Entities are loaded with their
// directly related entities attached one level deep, which is exactly what
// model's default-form serialization needs.
//
//	err := st.WithTx(ctx, func(tx *store.Tx) error {
//	    sensor, err := tx.SensorByName(ctx, "temp-1")
//	    if err != nil {
//	        return err
//	    }
//	    return tx.CreateMeasurement(ctx, &model.Measurement{Sensor: sensor, ...})
//	})
//
// Uniqueness and referential integrity are left to the schema: duplicate
// names surface as ErrConflict, and deleting a location or sensor clears
// the references held by other rows.
package store
