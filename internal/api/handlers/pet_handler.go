package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/petalertfrance/petalert-be/internal/auth"
	"github.com/petalertfrance/petalert-be/internal/models"
	"github.com/petalertfrance/petalert-be/internal/services"
	"github.com/petalertfrance/petalert-be/internal/uploads"
	"github.com/rs/zerolog/log"
)

// Multipart forms are parsed with this much memory before spilling to disk.
const maxMultipartMemory = 10 << 20

// PetHandler handles HTTP requests for pet profiles.
type PetHandler struct {
	service services.PetServiceProvider
	photos  *uploads.Store
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service services.PetServiceProvider, photos *uploads.Store) *PetHandler {
	return &PetHandler{service: service, photos: photos}
}

// ListMine handles the request to get all pets of the authenticated user.
func (h *PetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	pets, err := h.service.ListByOwner(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list pets")
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve pets")
		return
	}

	writeJSON(w, http.StatusOK, pets)
}

// Get handles the request to get a single pet of the authenticated user.
func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	pet, err := h.service.GetOwned(chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Pet not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve pet")
		return
	}

	writeJSON(w, http.StatusOK, pet)
}

// Create handles the multipart request to add a new pet, with an optional
// photo upload.
func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	fields, photoPath, ok := h.parsePetForm(w, r)
	if !ok {
		return
	}
	if fields.Name == "" || fields.Type == "" {
		writeMessage(w, http.StatusBadRequest, "Name and type are required")
		return
	}

	pet, err := h.service.Create(claims.UserID, fields, photoPath)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to create pet")
		writeMessage(w, http.StatusInternalServerError, "Failed to add pet")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Pet added successfully",
		"pet":     pet,
	})
}

// Update handles the multipart request to update an existing pet. A new
// photo, if supplied, replaces the previous one.
func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	fields, photoPath, ok := h.parsePetForm(w, r)
	if !ok {
		return
	}

	pet, err := h.service.Update(chi.URLParam(r, "id"), claims.UserID, fields, photoPath)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// The freshly stored photo has no row to attach to; reclaim it.
			if photoPath != nil {
				h.photos.DeletePhoto(*photoPath)
			}
			writeMessage(w, http.StatusNotFound, "Pet not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to update pet")
		writeMessage(w, http.StatusInternalServerError, "Failed to update pet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Pet updated successfully",
		"pet":     pet,
	})
}

// Delete handles the request to remove a pet and its photo.
func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	if err := h.service.Delete(chi.URLParam(r, "id"), claims.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Pet not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to delete pet")
		writeMessage(w, http.StatusInternalServerError, "Failed to delete pet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Pet deleted successfully"})
}

// parsePetForm extracts the pet fields and optional photo from a multipart
// form. On failure it writes the error response and returns ok=false.
func (h *PetHandler) parsePetForm(w http.ResponseWriter, r *http.Request) (models.PetFields, *string, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return models.PetFields{}, nil, false
	}

	fields := models.PetFields{
		Name:        r.FormValue("name"),
		Type:        r.FormValue("type"),
		Breed:       r.FormValue("breed"),
		Color:       r.FormValue("color"),
		Description: r.FormValue("description"),
		Microchip:   r.FormValue("microchip"),
	}
	if ageStr := r.FormValue("age"); ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Age must be a number")
			return models.PetFields{}, nil, false
		}
		fields.Age = &age
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile {
			return fields, nil, true
		}
		writeMessage(w, http.StatusBadRequest, "Invalid photo upload")
		return models.PetFields{}, nil, false
	}
	defer file.Close()

	photoPath, err := h.photos.SavePhoto(file, header)
	if err != nil {
		if errors.Is(err, uploads.ErrInvalidPhoto) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return models.PetFields{}, nil, false
		}
		log.Error().Err(err).Msg("Failed to store pet photo")
		writeMessage(w, http.StatusInternalServerError, "Failed to store photo")
		return models.PetFields{}, nil, false
	}

	return fields, &photoPath, true
}
