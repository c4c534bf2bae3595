package models

import "time"

// Pet represents an animal profile owned by a user.
type Pet struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"` // e.g. "dog", "cat"
	Breed       string     `json:"breed,omitempty"`
	Age         *int       `json:"age"`
	Color       string     `json:"color,omitempty"`
	Description string     `json:"description,omitempty"`
	Microchip   string     `json:"microchip,omitempty"`
	Photo       *string    `json:"photo"` // Relative URL path, e.g. /uploads/pet-<uuid>.jpg
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// PetFields carries the mutable pet attributes taken from a request.
type PetFields struct {
	Name        string
	Type        string
	Breed       string
	Age         *int
	Color       string
	Description string
	Microchip   string
}
