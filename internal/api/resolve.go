package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
	"github.com/mokkiwahti/mokkiwahti-core/internal/store"
)

const (
	ctxKeyTx          contextKey = "tx"
	ctxKeyLocation    contextKey = "location"
	ctxKeySensor      contextKey = "sensor"
	ctxKeyMeasurement contextKey = "measurement"
)

// txMiddleware opens the request's transaction. Handlers commit it with
// s.commit; anything left uncommitted is rolled back when the handler returns.
func (s *Server) txMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tx, err := s.store.Begin(r.Context())
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		defer func() {
			if err := tx.Rollback(); err != nil {
				s.logger.Warn("rollback failed", "error", err, "request_id", requestID(r.Context()))
			}
		}()

		ctx := context.WithValue(r.Context(), ctxKeyTx, tx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// txFrom returns the request's transaction. It panics when called outside
// txMiddleware, which the recovery middleware turns into a 500.
func txFrom(ctx context.Context) *store.Tx {
	return ctx.Value(ctxKeyTx).(*store.Tx) //nolint:forcetypeassert // Set by txMiddleware
}

// commit commits the request transaction, writing an error response and
// returning false on failure.
func (s *Server) commit(w http.ResponseWriter, r *http.Request) bool {
	if err := txFrom(r.Context()).Commit(); err != nil {
		s.writeStoreError(w, r, err)
		return false
	}
	return true
}

// nameParam returns the named path segment decoded. chi matches against the
// escaped path whenever the request has one, as it does for a name holding
// an encoded slash, and the parameter is then still escaped.
func nameParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", &store.NotFoundError{Entity: key, Key: raw}
	}
	return name, nil
}

// resolveLocation loads the {location} path segment by name.
func (s *Server) resolveLocation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := nameParam(r, "location")
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		loc, err := txFrom(r.Context()).LocationByName(r.Context(), name)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLocation, loc)))
	})
}

// resolveSensor loads the {sensor} path segment by name.
func (s *Server) resolveSensor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := nameParam(r, "sensor")
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		sensor, err := txFrom(r.Context()).SensorByName(r.Context(), name)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySensor, sensor)))
	})
}

// resolveMeasurement loads the {measurement} path segment by ID. A segment
// that is not an integer cannot match any row and is reported as 404.
func (s *Server) resolveMeasurement(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "measurement")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeStoreError(w, r, &store.NotFoundError{Entity: "measurement", Key: raw})
			return
		}
		m, err := txFrom(r.Context()).MeasurementByID(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyMeasurement, m)))
	})
}

func locationFrom(ctx context.Context) *model.Location {
	return ctx.Value(ctxKeyLocation).(*model.Location) //nolint:forcetypeassert // Set by resolveLocation
}

func sensorFrom(ctx context.Context) *model.Sensor {
	return ctx.Value(ctxKeySensor).(*model.Sensor) //nolint:forcetypeassert // Set by resolveSensor
}

func measurementFrom(ctx context.Context) *model.Measurement {
	return ctx.Value(ctxKeyMeasurement).(*model.Measurement) //nolint:forcetypeassert // Set by resolveMeasurement
}
