package models

import "time"

// Alert statuses.
const (
	AlertStatusActive = "active"
	AlertStatusClosed = "closed"
)

// Alert represents a lost-pet report.
type Alert struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	PetID        string     `json:"pet_id"`
	LostDate     string     `json:"lost_date"` // YYYY-MM-DD as entered by the owner
	Location     string     `json:"location,omitempty"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Description  string     `json:"description,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// AlertWithPet is an alert joined with the display fields of its pet,
// the shape returned by the public alert listings.
type AlertWithPet struct {
	Alert
	PetName  string  `json:"pet_name"`
	PetType  string  `json:"pet_type"`
	PetBreed string  `json:"pet_breed,omitempty"`
	PetColor string  `json:"pet_color,omitempty"`
	PetPhoto *string `json:"pet_photo"`
}

// AlertFields carries the mutable alert attributes taken from a request.
type AlertFields struct {
	LostDate     string  `json:"lost_date"`
	Location     string  `json:"location"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Description  string  `json:"description"`
	ContactPhone string  `json:"contact_phone"`
	ContactEmail string  `json:"contact_email"`
}
