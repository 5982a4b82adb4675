package api

import (
	"net/http"
	"net/url"

	"github.com/mokkiwahti/mokkiwahti-core/internal/model"
)

func locationURL(name string) string {
	return "/api/locations/" + url.PathEscape(name) + "/"
}

// handleListLocations returns every location in default form.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := txFrom(r.Context()).Locations(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	docs := make([]model.Document, 0, len(locations))
	for _, loc := range locations {
		docs = append(docs, loc.Serialize(false))
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleCreateLocation validates the body and stores a new location.
func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.Location.Validate(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	loc := &model.Location{}
	if err := loc.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).CreateLocation(r.Context(), loc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	w.Header().Set("Location", locationURL(loc.Name))
	writeJSON(w, http.StatusCreated, loc.Serialize(false))
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, locationFrom(r.Context()).Serialize(false))
}

// handleUpdateLocation replaces the location with the request body.
func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := s.schemas.Location.Validate(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	loc := locationFrom(r.Context())
	if err := loc.Deserialize(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if err := txFrom(r.Context()).UpdateLocation(r.Context(), loc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, loc.Serialize(false))
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := txFrom(r.Context()).DeleteLocation(r.Context(), locationFrom(r.Context())); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleLinkSensor attaches the sensor to the location.
func (s *Server) handleLinkSensor(w http.ResponseWriter, r *http.Request) {
	loc, sensor := locationFrom(r.Context()), sensorFrom(r.Context())
	if err := txFrom(r.Context()).LinkSensor(r.Context(), loc, sensor); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}
	s.logger.Debug("sensor linked", "location", loc.Name, "sensor", sensor.Name)
	writeJSON(w, http.StatusOK, loc.Serialize(false))
}

// handleUnlinkSensor detaches the sensor from the location. A sensor that
// is not linked to this location is answered with 404.
func (s *Server) handleUnlinkSensor(w http.ResponseWriter, r *http.Request) {
	loc, sensor := locationFrom(r.Context()), sensorFrom(r.Context())
	if err := txFrom(r.Context()).UnlinkSensor(r.Context(), loc, sensor); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !s.commit(w, r) {
		return
	}
	s.logger.Debug("sensor unlinked", "location", loc.Name, "sensor", sensor.Name)
	writeJSON(w, http.StatusOK, loc.Serialize(false))
}
