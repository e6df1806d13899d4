package models

import (
	"fmt"
	"time"
)

// Actor is the unified view over persons and organizations that
// evidence records reference. Every person and organization owns
// exactly one actor row; it is maintained automatically on save.
type Actor struct {
	ID             int64     `json:"id"`
	ExternalID     *int64    `json:"external_id"`
	PersonID       *int64    `json:"person"`
	OrganizationID *int64    `json:"organization"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks that the actor references exactly one of person or
// organization.
func (a *Actor) Validate() error {
	if (a.PersonID == nil) == (a.OrganizationID == nil) {
		return fmt.Errorf("actor must reference exactly one of person or organization")
	}
	return nil
}
