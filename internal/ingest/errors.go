package ingest

import "errors"

var (
	// ErrUnknownTopic is returned for messages outside the measurement topic tree.
	ErrUnknownTopic = errors.New("ingest: not a measurement topic")

	// ErrInvalidPayload is returned when a payload is not a JSON object.
	ErrInvalidPayload = errors.New("ingest: invalid payload")

	// ErrNotStarted is returned by Stop before Start succeeded.
	ErrNotStarted = errors.New("ingest: not started")
)
