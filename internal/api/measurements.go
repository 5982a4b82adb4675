package api

import (
	"net/http"
	"strconv"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

func measurementURL(id int64) string {
	return "/api/measurement/" + strconv.FormatInt(id, 10)
}

func writeMeasurements(w http.ResponseWriter, measurements []*model.Measurement) {
	docs := make([]model.Document, 0, len(measurements))
	for _, m := range measurements {
		docs = append(docs, m.Serialize(false))
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleListMeasurements returns every stored measurement.
func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := txFrom(r.Context()).Measurements(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeMeasurements(w, measurements)
}

// handleListSensorMeasurements returns the measurements taken by the sensor.
func (s *Server) handleListSensorMeasurements(w http.ResponseWriter, r *http.Request) {
	sensor := sensorFrom(r.Context())
	measurements, err := txFrom(r.Context()).MeasurementsBySensor(r.Context(), sensor.Name)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeMeasurements(w, measurements)
}

// handleListLocationMeasurements returns the measurements recorded at the location.
func (s *Server) handleListLocationMeasurements(w http.ResponseWriter, r *http.Request) {
	loc := locationFrom(r.Context())
	measurements, err := txFrom(r.Context()).MeasurementsByLocation(r.Context(), loc.Name)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeMeasurements(w, measurements)
}

// handleCreateMeasurement records a reading for the sensor. The measurement
// inherits the sensor's current location.
func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.Measurement.Validate(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	m := &model.Measurement{Sensor: sensorFrom(r.Context())}
	if err := m.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).CreateMeasurement(r.Context(), m); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	measurementStored("api")
	if s.sink != nil {
		s.sink.WriteMeasurement(m)
	}

	w.Header().Set("Location", measurementURL(m.ID))
	writeJSON(w, http.StatusCreated, m.Serialize(false))
}

func (s *Server) handleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, measurementFrom(r.Context()).Serialize(false))
}

// handleUpdateMeasurement replaces the reading and timestamp.
func (s *Server) handleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.Measurement.Validate(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	m := measurementFrom(r.Context())
	if err := m.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).UpdateMeasurement(r.Context(), m); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, m.Serialize(false))
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := txFrom(r.Context()).DeleteMeasurement(r.Context(), measurementFrom(r.Context())); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}
	w.WriteHeader(http.StatusOK)
}
