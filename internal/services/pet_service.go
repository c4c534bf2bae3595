package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/petalertfrance/petalert-be/internal/models"
	"github.com/petalertfrance/petalert-be/internal/uploads"
)

// PetServiceProvider defines the interface for pet services.
type PetServiceProvider interface {
	ListByOwner(userID string) ([]models.Pet, error)
	GetOwned(id, userID string) (models.Pet, error)
	Create(userID string, fields models.PetFields, photoPath *string) (models.Pet, error)
	Update(id, userID string, fields models.PetFields, newPhotoPath *string) (models.Pet, error)
	Delete(id, userID string) error
}

// PetService provides business logic for pet profile management.
type PetService struct {
	db     *sql.DB
	photos *uploads.Store
}

// NewPetService creates a new PetService.
func NewPetService(db *sql.DB, photos *uploads.Store) *PetService {
	return &PetService{db: db, photos: photos}
}

const petColumns = "id, user_id, name, type, breed, age, color, description, microchip, photo, created_at, updated_at"

// ListByOwner retrieves all pets owned by a user, newest first.
func (s *PetService) ListByOwner(userID string) ([]models.Pet, error) {
	rows, err := s.db.Query(
		"SELECT "+petColumns+" FROM pets WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanPets(rows)
}

// GetOwned retrieves a single pet if it exists and belongs to the user.
// A pet owned by someone else looks exactly like a pet that does not exist.
func (s *PetService) GetOwned(id, userID string) (models.Pet, error) {
	row := s.db.QueryRow(
		"SELECT "+petColumns+" FROM pets WHERE id = ? AND user_id = ?", id, userID)
	return s.scanPet(row)
}

// Create stores a new pet profile. The photo, if any, has already been
// written to the upload store by the caller.
func (s *PetService) Create(userID string, fields models.PetFields, photoPath *string) (models.Pet, error) {
	pet := models.Pet{
		ID:     uuid.New().String(),
		UserID: userID,
	}

	stmt, err := s.db.Prepare(`
		INSERT INTO pets (id, user_id, name, type, breed, age, color, description, microchip, photo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return models.Pet{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(pet.ID, pet.UserID, fields.Name, fields.Type, fields.Breed,
		fields.Age, fields.Color, fields.Description, fields.Microchip, photoPath)
	if err != nil {
		return models.Pet{}, err
	}

	return s.GetOwned(pet.ID, userID)
}

// Update replaces a pet's fields. When a new photo path is supplied the
// previous photo file is deleted (best-effort) before the row records the
// new one; otherwise the existing photo is kept.
func (s *PetService) Update(id, userID string, fields models.PetFields, newPhotoPath *string) (models.Pet, error) {
	existing, err := s.GetOwned(id, userID)
	if err != nil {
		return models.Pet{}, err
	}

	photo := existing.Photo
	if newPhotoPath != nil {
		if existing.Photo != nil {
			s.photos.DeletePhoto(*existing.Photo)
		}
		photo = newPhotoPath
	}

	stmt, err := s.db.Prepare(`
		UPDATE pets SET name = ?, type = ?, breed = ?, age = ?, color = ?,
			description = ?, microchip = ?, photo = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		return models.Pet{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(fields.Name, fields.Type, fields.Breed, fields.Age, fields.Color,
		fields.Description, fields.Microchip, photo, time.Now().UTC(), id, userID)
	if err != nil {
		return models.Pet{}, err
	}

	return s.GetOwned(id, userID)
}

// Delete removes a pet and its stored photo file.
func (s *PetService) Delete(id, userID string) error {
	existing, err := s.GetOwned(id, userID)
	if err != nil {
		return err
	}

	if existing.Photo != nil {
		s.photos.DeletePhoto(*existing.Photo)
	}

	_, err = s.db.Exec("DELETE FROM pets WHERE id = ? AND user_id = ?", id, userID)
	return err
}

// scanPets is a helper function to scan multiple rows into a slice of pets.
func (s *PetService) scanPets(rows *sql.Rows) ([]models.Pet, error) {
	pets := []models.Pet{}
	for rows.Next() {
		pet, err := s.scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

// scanPet is a helper function to scan a single row into a Pet struct.
func (s *PetService) scanPet(scanner interface{ Scan(...interface{}) error }) (models.Pet, error) {
	var pet models.Pet
	var breed, color, description, microchip, photo sql.NullString
	var age sql.NullInt64
	err := scanner.Scan(
		&pet.ID,
		&pet.UserID,
		&pet.Name,
		&pet.Type,
		&breed,
		&age,
		&color,
		&description,
		&microchip,
		&photo,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Pet{}, ErrNotFound
		}
		return models.Pet{}, err
	}
	pet.Breed = breed.String
	pet.Color = color.String
	pet.Description = description.String
	pet.Microchip = microchip.String
	if age.Valid {
		a := int(age.Int64)
		pet.Age = &a
	}
	if photo.Valid {
		pet.Photo = &photo.String
	}
	return pet, nil
}
