package model

import "errors"

// ErrInvalidDocument is returned by Deserialize when a document holds a
// value the entity cannot accept.
var ErrInvalidDocument = errors.New("invalid document")
