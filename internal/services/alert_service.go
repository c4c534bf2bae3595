package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petalertfrance/petalert-be/internal/models"
	"github.com/rs/zerolog/log"
)

// FeedPublisher pushes alert lifecycle notifications to connected clients.
type FeedPublisher interface {
	Publish(action string, payload interface{})
}

// AlertServiceProvider defines the interface for alert services.
type AlertServiceProvider interface {
	ListActive() ([]models.AlertWithPet, error)
	ListByOwner(userID string) ([]models.AlertWithPet, error)
	GetActive(id string) (models.AlertWithPet, error)
	Create(userID, petID string, fields models.AlertFields) (models.AlertWithPet, error)
	Close(id, userID string) error
	Update(id, userID string, fields models.AlertFields) (models.AlertWithPet, error)
	Delete(id, userID string) error
}

// AlertService provides business logic for lost-pet alerts.
type AlertService struct {
	db   *sql.DB
	feed FeedPublisher
}

// NewAlertService creates a new AlertService.
func NewAlertService(db *sql.DB, feed FeedPublisher) *AlertService {
	return &AlertService{db: db, feed: feed}
}

const alertJoinQuery = `
	SELECT a.id, a.user_id, a.pet_id, a.lost_date, a.location, a.latitude, a.longitude,
		a.description, a.contact_phone, a.contact_email, a.status, a.created_at, a.updated_at,
		p.name, p.type, p.breed, p.color, p.photo
	FROM alerts a
	JOIN pets p ON a.pet_id = p.id`

// ListActive retrieves all active alerts with their pet display fields,
// newest first. This listing is public.
func (s *AlertService) ListActive() ([]models.AlertWithPet, error) {
	rows, err := s.db.Query(alertJoinQuery+` WHERE a.status = 'active' ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAlerts(rows)
}

// ListByOwner retrieves all alerts created by a user regardless of status,
// newest first.
func (s *AlertService) ListByOwner(userID string) ([]models.AlertWithPet, error) {
	rows, err := s.db.Query(alertJoinQuery+` WHERE a.user_id = ? ORDER BY a.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAlerts(rows)
}

// GetActive retrieves a single active alert by ID. Closed alerts are not
// visible through the public endpoint.
func (s *AlertService) GetActive(id string) (models.AlertWithPet, error) {
	row := s.db.QueryRow(alertJoinQuery+` WHERE a.id = ? AND a.status = 'active'`, id)
	return s.scanAlert(row)
}

// getByID retrieves a single alert regardless of status.
func (s *AlertService) getByID(id string) (models.AlertWithPet, error) {
	row := s.db.QueryRow(alertJoinQuery+` WHERE a.id = ?`, id)
	return s.scanAlert(row)
}

// Create publishes a new lost-pet alert. The referenced pet must belong to
// the caller and must not already have an active alert. The partial unique
// index on alerts(pet_id) backs the pre-check, so two concurrent creations
// for the same pet cannot both succeed.
func (s *AlertService) Create(userID, petID string, fields models.AlertFields) (models.AlertWithPet, error) {
	var ownedPetID string
	err := s.db.QueryRow("SELECT id FROM pets WHERE id = ? AND user_id = ?", petID, userID).Scan(&ownedPetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.AlertWithPet{}, ErrPetNotOwned
		}
		return models.AlertWithPet{}, err
	}

	var existingID string
	err = s.db.QueryRow("SELECT id FROM alerts WHERE pet_id = ? AND status = 'active'", petID).Scan(&existingID)
	if err == nil {
		return models.AlertWithPet{}, ErrDuplicateActiveAlert
	}
	if err != sql.ErrNoRows {
		return models.AlertWithPet{}, err
	}

	id := uuid.New().String()
	stmt, err := s.db.Prepare(`
		INSERT INTO alerts (id, user_id, pet_id, lost_date, location, latitude, longitude,
			description, contact_phone, contact_email, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'active')
	`)
	if err != nil {
		return models.AlertWithPet{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(id, userID, petID, fields.LostDate, fields.Location,
		fields.Latitude, fields.Longitude, fields.Description, fields.ContactPhone, fields.ContactEmail)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent creation for the same pet.
			return models.AlertWithPet{}, ErrDuplicateActiveAlert
		}
		return models.AlertWithPet{}, err
	}

	alert, err := s.getByID(id)
	if err != nil {
		return models.AlertWithPet{}, err
	}

	s.publish("alert.created", alert)
	return alert, nil
}

// Close marks an alert as closed. Closing an already-closed alert succeeds;
// the update simply runs again.
func (s *AlertService) Close(id, userID string) error {
	if err := s.checkOwnership(id, userID); err != nil {
		return err
	}

	_, err := s.db.Exec(
		"UPDATE alerts SET status = 'closed', updated_at = ? WHERE id = ? AND user_id = ?",
		time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}

	s.publish("alert.closed", map[string]string{"id": id})
	return nil
}

// Update replaces all alert fields. The status is left untouched.
func (s *AlertService) Update(id, userID string, fields models.AlertFields) (models.AlertWithPet, error) {
	if err := s.checkOwnership(id, userID); err != nil {
		return models.AlertWithPet{}, err
	}

	stmt, err := s.db.Prepare(`
		UPDATE alerts SET lost_date = ?, location = ?, latitude = ?, longitude = ?,
			description = ?, contact_phone = ?, contact_email = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		return models.AlertWithPet{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(fields.LostDate, fields.Location, fields.Latitude, fields.Longitude,
		fields.Description, fields.ContactPhone, fields.ContactEmail, time.Now().UTC(), id, userID)
	if err != nil {
		return models.AlertWithPet{}, err
	}

	return s.getByID(id)
}

// Delete removes an alert.
func (s *AlertService) Delete(id, userID string) error {
	if err := s.checkOwnership(id, userID); err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM alerts WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return err
	}

	s.publish("alert.deleted", map[string]string{"id": id})
	return nil
}

// checkOwnership verifies an alert exists and belongs to the user. Absent
// and foreign rows are reported identically as ErrNotFound.
func (s *AlertService) checkOwnership(id, userID string) error {
	var found string
	err := s.db.QueryRow("SELECT id FROM alerts WHERE id = ? AND user_id = ?", id, userID).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *AlertService) publish(action string, payload interface{}) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(action, payload)
	log.Debug().Str("action", action).Msg("Alert feed notification sent")
}

// scanAlerts is a helper function to scan multiple rows into a slice of alerts.
func (s *AlertService) scanAlerts(rows *sql.Rows) ([]models.AlertWithPet, error) {
	alerts := []models.AlertWithPet{}
	for rows.Next() {
		alert, err := s.scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// scanAlert is a helper function to scan a single joined row into an AlertWithPet.
func (s *AlertService) scanAlert(scanner interface{ Scan(...interface{}) error }) (models.AlertWithPet, error) {
	var alert models.AlertWithPet
	var location, description, contactPhone, contactEmail sql.NullString
	var petBreed, petColor, petPhoto sql.NullString
	err := scanner.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.PetID,
		&alert.LostDate,
		&location,
		&alert.Latitude,
		&alert.Longitude,
		&description,
		&contactPhone,
		&contactEmail,
		&alert.Status,
		&alert.CreatedAt,
		&alert.UpdatedAt,
		&alert.PetName,
		&alert.PetType,
		&petBreed,
		&petColor,
		&petPhoto,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.AlertWithPet{}, ErrNotFound
		}
		return models.AlertWithPet{}, err
	}
	alert.Location = location.String
	alert.Description = description.String
	alert.ContactPhone = contactPhone.String
	alert.ContactEmail = contactEmail.String
	alert.PetBreed = petBreed.String
	alert.PetColor = petColor.String
	if petPhoto.Valid {
		alert.PetPhoto = &petPhoto.String
	}
	return alert, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
