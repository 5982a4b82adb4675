package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store opens transactions against the database.
type Store struct {
	db *database.DB
}

// New creates a Store. The schema must already be migrated.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction. The caller must Commit or Rollback it.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.InTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&Tx{tx: sqlTx, managed: true})
	})
}

// HealthCheck reports whether the database answers.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Tx is a unit of work. It is not safe for concurrent use.
type Tx struct {
	tx *sql.Tx
	// managed transactions are finished by WithTx.
	managed bool
	done    bool
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if t.managed {
		return errors.New("commit of a WithTx transaction")
	}
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback discards the transaction. It is a no-op after Commit, so it can
// be deferred unconditionally.
func (t *Tx) Rollback() error {
	if t.managed || t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatOrNil(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
