package db

import (
	"database/sql"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const personColumns = `id, external_id, sync_uuid, first_name, last_name, title,
	also_known_as, wikidata_id, aw_id, status_id,
	created_at, updated_at, synced_at, last_synced_state`

func scanPerson(row interface{ Scan(...any) error }) (*models.Person, error) {
	var p models.Person
	var externalID, awID, statusID, syncedAt sql.NullInt64
	var title, wikidataID, state sql.NullString
	var alsoKnownAs string
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &externalID, &p.SyncUUID, &p.FirstName, &p.LastName,
		&title, &alsoKnownAs, &wikidataID, &awID, &statusID,
		&createdAt, &updatedAt, &syncedAt, &state)
	if err != nil {
		return nil, err
	}

	p.ExternalID = intPtr(externalID)
	p.Title = strPtr(title)
	p.AlsoKnownAs = decodeStrings(alsoKnownAs)
	p.WikidataID = strPtr(wikidataID)
	p.AwID = intPtr(awID)
	p.StatusID = intPtr(statusID)
	p.CreatedAt = colTime(createdAt)
	p.UpdatedAt = colTime(updatedAt)
	p.SyncedAt = colTimePtr(syncedAt)
	p.LastSyncedState = decodeState(state)
	return &p, nil
}

// SavePerson inserts or updates a person and maintains its actor row.
// When synced is true the save counts as a sync write, otherwise the
// record becomes locally modified.
func (r *Repository) SavePerson(p *models.Person, synced bool) error {
	r.touch(p, synced)

	if p.ID == 0 {
		query := `
		INSERT INTO persons (external_id, sync_uuid, first_name, last_name, title,
			also_known_as, wikidata_id, aw_id, status_id,
			created_at, updated_at, synced_at, last_synced_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.Exec(query, p.ExternalID, p.SyncUUID, p.FirstName, p.LastName,
			p.Title, encodeStrings(p.AlsoKnownAs), p.WikidataID, p.AwID, p.StatusID,
			timeCol(p.CreatedAt), timeCol(p.UpdatedAt), timePtrCol(p.SyncedAt),
			encodeState(p.LastSyncedState))
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
		p.ID, _ = res.LastInsertId()
	} else {
		query := `
		UPDATE persons SET external_id = ?, sync_uuid = ?, first_name = ?, last_name = ?,
			title = ?, also_known_as = ?, wikidata_id = ?, aw_id = ?, status_id = ?,
			updated_at = ?, synced_at = ?, last_synced_state = ?
		WHERE id = ?
		`
		_, err := r.db.Exec(query, p.ExternalID, p.SyncUUID, p.FirstName, p.LastName,
			p.Title, encodeStrings(p.AlsoKnownAs), p.WikidataID, p.AwID, p.StatusID,
			timeCol(p.UpdatedAt), timePtrCol(p.SyncedAt), encodeState(p.LastSyncedState),
			p.ID)
		if err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}
	}

	return r.upsertActor(&models.Actor{ExternalID: p.ExternalID, PersonID: &p.ID, Name: p.Name()})
}

// GetPerson retrieves a person by local ID.
func (r *Repository) GetPerson(id int64) (*models.Person, error) {
	stmt, err := r.PrepareStmt("SELECT " + personColumns + " FROM persons WHERE id = ?")
	if err != nil {
		return nil, err
	}
	p, err := scanPerson(stmt.QueryRow(id))
	if err != nil {
		return nil, notFoundErr(err, "person", id)
	}
	return p, nil
}

// ListPersons returns all persons ordered by ID.
func (r *Repository) ListPersons() ([]*models.Person, error) {
	rows, err := r.db.Query("SELECT " + personColumns + " FROM persons ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// PersonsByAwID returns persons keyed by their abgeordnetenwatch ID.
func (r *Repository) PersonsByAwID() (map[int64]*models.Person, error) {
	rows, err := r.db.Query("SELECT " + personColumns + " FROM persons WHERE aw_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byAwID := make(map[int64]*models.Person)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		byAwID[*p.AwID] = p
	}
	return byAwID, rows.Err()
}

// DeletePersonsNotIn removes previously imported persons whose external
// ID is no longer part of the remote record set, and returns them.
func (r *Repository) DeletePersonsNotIn(externalIDs []int64) ([]*models.Person, error) {
	query := "SELECT " + personColumns + " FROM persons WHERE external_id IS NOT NULL"
	args := []any{}
	if len(externalIDs) > 0 {
		query += " AND external_id NOT IN (" + placeholders(len(externalIDs)) + ")"
		args = int64Args(externalIDs)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range stale {
		if _, err := r.db.Exec("DELETE FROM persons WHERE id = ?", p.ID); err != nil {
			return nil, fmt.Errorf("failed to delete person %d: %w", p.ID, err)
		}
	}
	return stale, nil
}
