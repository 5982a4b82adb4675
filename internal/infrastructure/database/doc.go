// Package database owns the SQLite connection used by Mökkiwahti.
//
// It opens the database with foreign keys enforced (the schema relies on
// ON DELETE SET NULL to detach sensors and measurements from deleted
// parents), applies the embedded schema migrations and offers a small
// transaction helper for callers that need all-or-nothing writes.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "data/mokkiwahti.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
