package services

import "errors"

// Sentinel errors translated to HTTP statuses by the handlers.
var (
	// ErrNotFound covers both a row that does not exist and a row owned by
	// another user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken signals a registration with an already used email.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned for unknown email or wrong password
	// alike, so the message never confirms whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPetNotOwned signals an alert creation referencing a pet that does
	// not exist or belongs to another user.
	ErrPetNotOwned = errors.New("pet not found or not owned")

	// ErrDuplicateActiveAlert signals that the pet already has an active alert.
	ErrDuplicateActiveAlert = errors.New("an active alert already exists for this pet")
)
