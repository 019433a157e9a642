// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/chat"
	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/geo"
	"github.com/mirrorhq/infrascene/internal/scene"
)

// HandleAirports serves the airport collection.
func (s *ServerContext) HandleAirports(w http.ResponseWriter, r *http.Request) {
	s.serveDataset(w, geo.CategoryAirport)
}

// HandlePorts serves the port collection.
func (s *ServerContext) HandlePorts(w http.ResponseWriter, r *http.Request) {
	s.serveDataset(w, geo.CategoryPort)
}

// HandleWarehouses serves the warehouse collection.
func (s *ServerContext) HandleWarehouses(w http.ResponseWriter, r *http.Request) {
	s.serveDataset(w, geo.CategoryWarehouse)
}

// serveDataset writes a category as enriched GeoJSON. A still-loading
// category answers 503 so the client retries; a failed one serves an
// empty collection and the layer simply renders nothing.
func (s *ServerContext) serveDataset(w http.ResponseWriter, cat geo.Category) {
	switch s.Store.Status(cat) {
	case dataset.StatusPending, dataset.StatusLoading:
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "loading"})
		return
	case dataset.StatusFailed:
		writeJSON(w, http.StatusOK, geo.FeatureCollection{Type: "FeatureCollection", Features: []geo.Feature{}})
		return
	}

	payload, ok, err := s.datasetPayload(cat)
	if err != nil {
		log.Error().Err(err).Str("category", string(cat)).Msg("Failed to render dataset")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, geo.FeatureCollection{Type: "FeatureCollection", Features: []geo.Feature{}})
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(payload)
}

// HandleChat runs one conversation turn: forward to the agent, queue
// the returned actions and echo text and actions back to the caller.
func (s *ServerContext) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Message string         `json:"message"`
		History []chat.Message `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message required"})
		return
	}

	reply := chat.Ask(r.Context(), s.Chat, body.Message, body.History)
	s.Engine.Dispatch(reply.Actions)

	writeJSON(w, http.StatusOK, reply)
}

// HandleScene serves the current scene snapshot.
func (s *ServerContext) HandleScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Scene())
}

// HandleCamera applies a user-driven camera pose.
func (s *ServerContext) HandleCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cam scene.Camera
	if err := json.NewDecoder(r.Body).Decode(&cam); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad camera pose"})
		return
	}

	s.Engine.SetCamera(cam)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRoute clears the route overlay on DELETE.
func (s *ServerContext) HandleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.Engine.ClearRoute()
	w.WriteHeader(http.StatusNoContent)
}

// HandleFindNearest answers nearest-feature queries from the spatial
// index over the loaded collections.
func (s *ServerContext) HandleFindNearest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Location struct {
			Longitude float64 `json:"longitude"`
			Latitude  float64 `json:"latitude"`
		} `json:"location"`
		InfrastructureType string `json:"infrastructure_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	cat, ok := geo.ParseCategory(body.InfrastructureType)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		return
	}

	loc := geo.LonLat{Lon: body.Location.Longitude, Lat: body.Location.Latitude}
	f, distKm, ok := s.Store.Nearest(cat, loc)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		return
	}

	pos, _ := f.Geometry.FirstCoordinate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"feature": map[string]interface{}{
			"id":          f.Properties.ID(),
			"name":        f.Properties.Name(),
			"coordinates": map[string]float64{"lon": pos.Lon, "lat": pos.Lat},
			"distance_km": distKm,
		},
	})
}

// HandleHealth is the liveness probe.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
