package api

import (
	"net/http"
	"net/url"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

func sensorURL(name string) string {
	return "/api/sensors/" + url.PathEscape(name) + "/"
}

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := txFrom(r.Context()).Sensors(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	docs := make([]model.Document, 0, len(sensors))
	for _, sensor := range sensors {
		docs = append(docs, sensor.Serialize(false))
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleCreateSensor stores a new sensor together with its configuration.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.ValidateSensor(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	sensor := &model.Sensor{}
	if err := sensor.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).CreateSensor(r.Context(), sensor); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	w.Header().Set("Location", sensorURL(sensor.Name))
	writeJSON(w, http.StatusCreated, sensor.Serialize(false))
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sensorFrom(r.Context()).Serialize(false))
}

// handleUpdateSensor replaces the sensor's name and configuration. The
// sensor's location is only changed through the link endpoints.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.ValidateSensor(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	sensor := sensorFrom(r.Context())
	if err := sensor.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).UpdateSensor(r.Context(), sensor); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, sensor.Serialize(false))
}

func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	if err := txFrom(r.Context()).DeleteSensor(r.Context(), sensorFrom(r.Context())); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}
	w.WriteHeader(http.StatusOK)
}
