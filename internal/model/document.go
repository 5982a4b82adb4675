package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Document is the JSON object form of an entity.
type Document map[string]any

// Entity is implemented by every stored type.
type Entity interface {
	Serialize(short bool) Document
	Deserialize(doc Document) error
}

// MaxNameLength bounds location and sensor names.
const MaxNameLength = 64

// localTimestampLayout is ISO-8601 without a zone offset.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp accepts RFC 3339 timestamps and ISO-8601 timestamps without
// an offset. The latter are taken to be UTC. The result is always in UTC.
// The T and Z designators may be lower case.
func ParseTimestamp(s string) (time.Time, error) {
	upper := strings.ToUpper(s)
	if t, err := time.Parse(time.RFC3339Nano, upper); err == nil {
		return t.UTC(), nil
	}
	if !strings.ContainsAny(upper, "Z+") {
		if t, err := time.ParseInLocation(localTimestampLayout, upper, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid date-time", s)
}

// FormatTimestamp renders t the way documents carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (d Document) str(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidDocument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidDocument, key)
	}
	return s, nil
}

func (d Document) number(key string) (float64, error) {
	v, ok := d[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidDocument, key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidDocument, key)
	}
	return f, nil
}

// optionalNumber returns nil when key is absent or null.
func (d Document) optionalNumber(key string) (*float64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number or null", ErrInvalidDocument, key)
	}
	return &f, nil
}

func (d Document) integer(key string) (int, error) {
	f, err := d.number(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidDocument, key)
	}
	return int(f), nil
}

// Object returns the nested document at key, or nil when it is absent or null.
func (d Document) Object(key string) (Document, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch obj := v.(type) {
	case Document:
		return obj, nil
	case map[string]any:
		return Document(obj), nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidDocument, key)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidDocument)
	}
	if n := len([]rune(name)); n > MaxNameLength {
		return fmt.Errorf("%w: name is %d characters, at most %d allowed", ErrInvalidDocument, n, MaxNameLength)
	}
	return nil
}

func optional(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
