package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrNotLinked is returned when unlinking a sensor from a location it
	// does not belong to.
	ErrNotLinked = errors.New("sensor not linked to location")

	// ErrTxDone is returned when a Tx is used after Commit or Rollback.
	ErrTxDone = errors.New("transaction already finished")
)

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError names the field and value that already exist.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotLinkedError names the sensor and location of a failed unlink.
type NotLinkedError struct {
	Location string
	Sensor   string
}

func (e *NotLinkedError) Error() string {
	return fmt.Sprintf("sensor %q is not linked to location %q", e.Sensor, e.Location)
}

// Is makes errors.Is(err, ErrNotLinked) hold.
func (e *NotLinkedError) Is(target error) bool { return target == ErrNotLinked }
