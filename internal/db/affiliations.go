package db

import (
	"database/sql"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const affiliationColumns = `id, external_id, sync_uuid, person_id, organization_id, role_id,
	start_date, end_date, start_date_string, end_date_string, reference_url, comment, aw_id,
	created_at, updated_at, synced_at, last_synced_state`

func scanAffiliation(row interface{ Scan(...any) error }) (*models.Affiliation, error) {
	var a models.Affiliation
	var externalID, roleID, awID, syncedAt sql.NullInt64
	var startDate, endDate, startDateString, endDateString, referenceURL, state sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &externalID, &a.SyncUUID, &a.PersonID, &a.OrganizationID, &roleID,
		&startDate, &endDate, &startDateString, &endDateString, &referenceURL, &a.Comment, &awID,
		&createdAt, &updatedAt, &syncedAt, &state)
	if err != nil {
		return nil, err
	}

	a.ExternalID = intPtr(externalID)
	a.RoleID = intPtr(roleID)
	a.StartDate = colDate(startDate)
	a.EndDate = colDate(endDate)
	a.StartDateString = strPtr(startDateString)
	a.EndDateString = strPtr(endDateString)
	a.ReferenceURL = strPtr(referenceURL)
	a.AwID = intPtr(awID)
	a.CreatedAt = colTime(createdAt)
	a.UpdatedAt = colTime(updatedAt)
	a.SyncedAt = colTimePtr(syncedAt)
	a.LastSyncedState = decodeState(state)
	return &a, nil
}

// SaveAffiliation inserts or updates an affiliation.
func (r *Repository) SaveAffiliation(a *models.Affiliation, synced bool) error {
	r.touch(a, synced)

	if a.ID == 0 {
		query := `
		INSERT INTO affiliations (external_id, sync_uuid, person_id, organization_id, role_id,
			start_date, end_date, start_date_string, end_date_string, reference_url, comment, aw_id,
			created_at, updated_at, synced_at, last_synced_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.Exec(query, a.ExternalID, a.SyncUUID, a.PersonID, a.OrganizationID,
			a.RoleID, dateCol(a.StartDate), dateCol(a.EndDate), a.StartDateString,
			a.EndDateString, a.ReferenceURL, a.Comment, a.AwID,
			timeCol(a.CreatedAt), timeCol(a.UpdatedAt), timePtrCol(a.SyncedAt),
			encodeState(a.LastSyncedState))
		if err != nil {
			return fmt.Errorf("failed to insert affiliation: %w", err)
		}
		a.ID, _ = res.LastInsertId()
		return nil
	}

	query := `
	UPDATE affiliations SET external_id = ?, sync_uuid = ?, person_id = ?, organization_id = ?,
		role_id = ?, start_date = ?, end_date = ?, start_date_string = ?, end_date_string = ?,
		reference_url = ?, comment = ?, aw_id = ?,
		updated_at = ?, synced_at = ?, last_synced_state = ?
	WHERE id = ?
	`
	_, err := r.db.Exec(query, a.ExternalID, a.SyncUUID, a.PersonID, a.OrganizationID,
		a.RoleID, dateCol(a.StartDate), dateCol(a.EndDate), a.StartDateString,
		a.EndDateString, a.ReferenceURL, a.Comment, a.AwID,
		timeCol(a.UpdatedAt), timePtrCol(a.SyncedAt), encodeState(a.LastSyncedState),
		a.ID)
	if err != nil {
		return fmt.Errorf("failed to update affiliation: %w", err)
	}
	return nil
}

// GetAffiliation retrieves an affiliation by local ID.
func (r *Repository) GetAffiliation(id int64) (*models.Affiliation, error) {
	stmt, err := r.PrepareStmt("SELECT " + affiliationColumns + " FROM affiliations WHERE id = ?")
	if err != nil {
		return nil, err
	}
	a, err := scanAffiliation(stmt.QueryRow(id))
	if err != nil {
		return nil, notFoundErr(err, "affiliation", id)
	}
	return a, nil
}

// ListAffiliations returns all affiliations ordered by ID.
func (r *Repository) ListAffiliations() ([]*models.Affiliation, error) {
	rows, err := r.db.Query("SELECT " + affiliationColumns + " FROM affiliations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affiliations []*models.Affiliation
	for rows.Next() {
		a, err := scanAffiliation(rows)
		if err != nil {
			return nil, err
		}
		affiliations = append(affiliations, a)
	}
	return affiliations, rows.Err()
}

// AffiliationsByAwID returns affiliations keyed by their
// abgeordnetenwatch ID.
func (r *Repository) AffiliationsByAwID() (map[int64]*models.Affiliation, error) {
	rows, err := r.db.Query("SELECT " + affiliationColumns + " FROM affiliations WHERE aw_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byAwID := make(map[int64]*models.Affiliation)
	for rows.Next() {
		a, err := scanAffiliation(rows)
		if err != nil {
			return nil, err
		}
		byAwID[*a.AwID] = a
	}
	return byAwID, rows.Err()
}

// DeleteAffiliationsNotIn removes previously imported affiliations
// whose external ID is no longer part of the remote record set.
func (r *Repository) DeleteAffiliationsNotIn(externalIDs []int64) ([]*models.Affiliation, error) {
	query := "SELECT " + affiliationColumns + " FROM affiliations WHERE external_id IS NOT NULL"
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

	var stale []*models.Affiliation
	for rows.Next() {
		a, err := scanAffiliation(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range stale {
		if _, err := r.db.Exec("DELETE FROM affiliations WHERE id = ?", a.ID); err != nil {
			return nil, fmt.Errorf("failed to delete affiliation %d: %w", a.ID, err)
		}
	}
	return stale, nil
}
