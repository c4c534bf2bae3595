package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/petalertfrance/petalert-be/internal/geocoding"
	"github.com/rs/zerolog/log"
)

// GeocodingHandler proxies address lookups to the geocoding client.
type GeocodingHandler struct {
	client *geocoding.Client
}

// NewGeocodingHandler creates a new GeocodingHandler.
func NewGeocodingHandler(client *geocoding.Client) *GeocodingHandler {
	return &GeocodingHandler{client: client}
}

// searchResponse is the envelope shared by all geocoding endpoints.
type searchResponse struct {
	Success     bool                   `json:"success"`
	Suggestions []geocoding.Suggestion `json:"suggestions,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Search handles address autocompletion requests.
func (h *GeocodingHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	suggestions, err := h.client.Search(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrQueryTooShort):
			writeJSON(w, http.StatusOK, searchResponse{Success: false, Error: err.Error()})
		case errors.Is(err, geocoding.ErrRateLimited):
			writeJSON(w, http.StatusTooManyRequests, searchResponse{Success: false, Error: err.Error()})
		default:
			log.Error().Err(err).Str("query", query).Msg("Address search failed")
			writeJSON(w, http.StatusInternalServerError, searchResponse{Success: false, Error: geocoding.ErrSearchFailed.Error()})
		}
		return
	}

	if len(suggestions) == 0 {
		writeJSON(w, http.StatusOK, searchResponse{
			Success:     false,
			Suggestions: []geocoding.Suggestion{},
			Error:       "No address found",
		})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Success: true, Suggestions: suggestions})
}

// geocodeResponse is the success shape of the forward and reverse endpoints.
type geocodeResponse struct {
	Success bool `json:"success"`
	geocoding.Result
}

// Geocode handles forward geocoding of a free-text address.
func (h *GeocodingHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Address == "" {
		writeJSON(w, http.StatusBadRequest, searchResponse{Success: false, Error: geocoding.ErrBlankAddress.Error()})
		return
	}

	result, err := h.client.Geocode(r.Context(), payload.Address)
	if err != nil {
		h.writeGeocodeError(w, err, "Geocoding failed")
		return
	}

	writeJSON(w, http.StatusOK, geocodeResponse{Success: true, Result: result})
}

// Reverse handles reverse geocoding of coordinates.
func (h *GeocodingHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Latitude == nil || payload.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, searchResponse{Success: false, Error: "Latitude and longitude are required"})
		return
	}

	result, err := h.client.ReverseGeocode(r.Context(), *payload.Latitude, *payload.Longitude)
	if err != nil {
		h.writeGeocodeError(w, err, "Reverse geocoding failed")
		return
	}

	writeJSON(w, http.StatusOK, geocodeResponse{Success: true, Result: result})
}

// writeGeocodeError maps client errors to the response shapes of the
// forward/reverse endpoints. Provider-side failures keep their specific
// message but share the 404 status the web client expects.
func (h *GeocodingHandler) writeGeocodeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, geocoding.ErrBlankAddress):
		writeJSON(w, http.StatusBadRequest, searchResponse{Success: false, Error: err.Error()})
	case errors.Is(err, geocoding.ErrNoResults),
		errors.Is(err, geocoding.ErrTimeout),
		errors.Is(err, geocoding.ErrUnavailable),
		errors.Is(err, geocoding.ErrRateLimited):
		writeJSON(w, http.StatusNotFound, searchResponse{Success: false, Error: err.Error()})
	default:
		log.Error().Err(err).Msg(logMsg)
		writeJSON(w, http.StatusInternalServerError, searchResponse{Success: false, Error: "Geocoding error"})
	}
}
