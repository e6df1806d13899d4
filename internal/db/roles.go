package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const roleColumns = `id, external_id, sync_uuid, name,
	created_at, updated_at, synced_at, last_synced_state`

func scanRole(row interface{ Scan(...any) error }) (*models.Role, error) {
	var ro models.Role
	var externalID, syncedAt sql.NullInt64
	var state sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&ro.ID, &externalID, &ro.SyncUUID, &ro.Name,
		&createdAt, &updatedAt, &syncedAt, &state)
	if err != nil {
		return nil, err
	}

	ro.ExternalID = intPtr(externalID)
	ro.CreatedAt = colTime(createdAt)
	ro.UpdatedAt = colTime(updatedAt)
	ro.SyncedAt = colTimePtr(syncedAt)
	ro.LastSyncedState = decodeState(state)
	return &ro, nil
}

// SaveRole inserts or updates a role.
func (r *Repository) SaveRole(ro *models.Role, synced bool) error {
	r.touch(ro, synced)

	if ro.ID == 0 {
		query := `
		INSERT INTO roles (external_id, sync_uuid, name,
			created_at, updated_at, synced_at, last_synced_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.Exec(query, ro.ExternalID, ro.SyncUUID, ro.Name,
			timeCol(ro.CreatedAt), timeCol(ro.UpdatedAt), timePtrCol(ro.SyncedAt),
			encodeState(ro.LastSyncedState))
		if err != nil {
			return fmt.Errorf("failed to insert role: %w", err)
		}
		ro.ID, _ = res.LastInsertId()
		return nil
	}

	query := `
	UPDATE roles SET external_id = ?, sync_uuid = ?, name = ?,
		updated_at = ?, synced_at = ?, last_synced_state = ?
	WHERE id = ?
	`
	_, err := r.db.Exec(query, ro.ExternalID, ro.SyncUUID, ro.Name,
		timeCol(ro.UpdatedAt), timePtrCol(ro.SyncedAt), encodeState(ro.LastSyncedState),
		ro.ID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// GetRole retrieves a role by local ID.
func (r *Repository) GetRole(id int64) (*models.Role, error) {
	stmt, err := r.PrepareStmt("SELECT " + roleColumns + " FROM roles WHERE id = ?")
	if err != nil {
		return nil, err
	}
	ro, err := scanRole(stmt.QueryRow(id))
	if err != nil {
		return nil, notFoundErr(err, "role", id)
	}
	return ro, nil
}

// GetRoleBySyncUUID retrieves a role by its sync UUID, or nil when no
// role carries it.
func (r *Repository) GetRoleBySyncUUID(syncUUID string) (*models.Role, error) {
	stmt, err := r.PrepareStmt("SELECT " + roleColumns + " FROM roles WHERE sync_uuid = ?")
	if err != nil {
		return nil, err
	}
	ro, err := scanRole(stmt.QueryRow(syncUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ro, nil
}

// ListRoles returns all roles ordered by ID.
func (r *Repository) ListRoles() ([]*models.Role, error) {
	rows, err := r.db.Query("SELECT " + roleColumns + " FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}

// DeleteRolesNotIn removes previously imported roles whose external ID
// is no longer part of the remote record set.
func (r *Repository) DeleteRolesNotIn(externalIDs []int64) ([]*models.Role, error) {
	query := "SELECT " + roleColumns + " FROM roles WHERE external_id IS NOT NULL"
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

	var stale []*models.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ro := range stale {
		if _, err := r.db.Exec("DELETE FROM roles WHERE id = ?", ro.ID); err != nil {
			return nil, fmt.Errorf("failed to delete role %d: %w", ro.ID, err)
		}
	}
	return stale, nil
}
