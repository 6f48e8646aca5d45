package models

import "time"

// Account represents a platform account as seen by the auth core.
// Profile, resume, and questionnaire data live in other services.
type Account struct {
	ID             string
	Email          string
	Name           string
	Role           string
	OrganizationID string
	PhoneNumber    string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
