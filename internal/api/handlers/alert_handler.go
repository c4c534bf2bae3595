package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petalertfrance/petalert-be/internal/auth"
	"github.com/petalertfrance/petalert-be/internal/models"
	"github.com/petalertfrance/petalert-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AlertHandler handles HTTP requests for lost-pet alerts.
type AlertHandler struct {
	service services.AlertServiceProvider
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(service services.AlertServiceProvider) *AlertHandler {
	return &AlertHandler{service: service}
}

// CreateAlertPayload defines the structure for alert creation requests.
type CreateAlertPayload struct {
	PetID string `json:"pet_id"`
	models.AlertFields
}

// ListActive handles the public request for all active alerts.
func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListActive()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active alerts")
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}

// ListMine handles the request for all alerts of the authenticated user,
// regardless of status.
func (h *AlertHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	alerts, err := h.service.ListByOwner(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list alerts")
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}

// Get handles the public request for a single active alert.
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.GetActive(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Alert not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve alert")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// Create handles the request to publish a new alert.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	var payload CreateAlertPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.PetID == "" || payload.LostDate == "" {
		writeMessage(w, http.StatusBadRequest, "Pet and lost date are required")
		return
	}

	alert, err := h.service.Create(claims.UserID, payload.PetID, payload.AlertFields)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPetNotOwned):
			writeMessage(w, http.StatusBadRequest, "Pet not found or not authorized")
		case errors.Is(err, services.ErrDuplicateActiveAlert):
			writeMessage(w, http.StatusBadRequest, "An active alert already exists for this pet")
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to create alert")
			writeMessage(w, http.StatusInternalServerError, "Failed to create alert")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Alert created successfully",
		"alert":   alert,
	})
}

// Close handles the request to mark an alert as closed.
func (h *AlertHandler) Close(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	if err := h.service.Close(chi.URLParam(r, "id"), claims.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to close alert")
		writeMessage(w, http.StatusInternalServerError, "Failed to close alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert closed successfully"})
}

// Update handles the request to replace an alert's fields.
func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	var fields models.AlertFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alert, err := h.service.Update(chi.URLParam(r, "id"), claims.UserID, fields)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to update alert")
		writeMessage(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Alert updated successfully",
		"alert":   alert,
	})
}

// Delete handles the request to remove an alert.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	if err := h.service.Delete(chi.URLParam(r, "id"), claims.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to delete alert")
		writeMessage(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deleted successfully"})
}
