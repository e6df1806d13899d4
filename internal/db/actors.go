package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const actorColumns = `id, external_id, person_id, organization_id, name, created_at, updated_at`

func scanActor(row interface{ Scan(...any) error }) (*models.Actor, error) {
	var a models.Actor
	var externalID, personID, organizationID sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &externalID, &personID, &organizationID, &a.Name,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.ExternalID = intPtr(externalID)
	a.PersonID = intPtr(personID)
	a.OrganizationID = intPtr(organizationID)
	a.CreatedAt = colTime(createdAt)
	a.UpdatedAt = colTime(updatedAt)
	return &a, nil
}

// upsertActor keeps the actor row of a person or organization current.
// The external ID on the row mirrors the owner's external ID.
func (r *Repository) upsertActor(a *models.Actor) error {
	if err := a.Validate(); err != nil {
		return err
	}

	var query string
	var ownerID int64
	if a.PersonID != nil {
		query = "SELECT " + actorColumns + " FROM actors WHERE person_id = ?"
		ownerID = *a.PersonID
	} else {
		query = "SELECT " + actorColumns + " FROM actors WHERE organization_id = ?"
		ownerID = *a.OrganizationID
	}

	existing, err := scanActor(r.db.QueryRow(query, ownerID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := timeCol(r.now().UTC())
	if existing == nil {
		res, err := r.db.Exec(`
			INSERT INTO actors (external_id, person_id, organization_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ExternalID, a.PersonID, a.OrganizationID, a.Name, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert actor: %w", err)
		}
		a.ID, _ = res.LastInsertId()
		return nil
	}

	a.ID = existing.ID
	if existing.Name == a.Name && intPtrEqual(existing.ExternalID, a.ExternalID) {
		return nil
	}
	_, err = r.db.Exec("UPDATE actors SET name = ?, external_id = ?, updated_at = ? WHERE id = ?",
		a.Name, a.ExternalID, now, existing.ID)
	return err
}

func intPtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetActorForPerson returns the actor row owned by a person.
func (r *Repository) GetActorForPerson(personID int64) (*models.Actor, error) {
	a, err := scanActor(r.db.QueryRow(
		"SELECT "+actorColumns+" FROM actors WHERE person_id = ?", personID))
	if err != nil {
		return nil, notFoundErr(err, "actor for person", personID)
	}
	return a, nil
}

// GetActorForOrganization returns the actor row owned by an organization.
func (r *Repository) GetActorForOrganization(organizationID int64) (*models.Actor, error) {
	a, err := scanActor(r.db.QueryRow(
		"SELECT "+actorColumns+" FROM actors WHERE organization_id = ?", organizationID))
	if err != nil {
		return nil, notFoundErr(err, "actor for organization", organizationID)
	}
	return a, nil
}

// ActorsByExternalID returns all actors that carry a remote view ID,
// keyed by that ID.
func (r *Repository) ActorsByExternalID() (map[int64]*models.Actor, error) {
	rows, err := r.db.Query("SELECT " + actorColumns + " FROM actors WHERE external_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byExternalID := make(map[int64]*models.Actor)
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		byExternalID[*a.ExternalID] = a
	}
	return byExternalID, rows.Err()
}

// ListActors returns all actors ordered by ID.
func (r *Repository) ListActors() ([]*models.Actor, error) {
	rows, err := r.db.Query("SELECT " + actorColumns + " FROM actors ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []*models.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}
