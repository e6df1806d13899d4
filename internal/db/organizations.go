package db

import (
	"database/sql"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const organizationColumns = `id, external_id, sync_uuid, name, also_known_as,
	wikidata_id, aw_id, status_id, institutional_level_id, special_regions,
	created_at, updated_at, synced_at, last_synced_state`

func scanOrganization(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var o models.Organization
	var externalID, awID, statusID, levelID, syncedAt sql.NullInt64
	var wikidataID, state sql.NullString
	var alsoKnownAs, specialRegions string
	var createdAt, updatedAt int64

	err := row.Scan(&o.ID, &externalID, &o.SyncUUID, &o.Name, &alsoKnownAs,
		&wikidataID, &awID, &statusID, &levelID, &specialRegions,
		&createdAt, &updatedAt, &syncedAt, &state)
	if err != nil {
		return nil, err
	}

	o.ExternalID = intPtr(externalID)
	o.AlsoKnownAs = decodeStrings(alsoKnownAs)
	o.WikidataID = strPtr(wikidataID)
	o.AwID = intPtr(awID)
	o.StatusID = intPtr(statusID)
	o.InstitutionalLevelID = intPtr(levelID)
	o.SpecialRegions = decodeStrings(specialRegions)
	o.CreatedAt = colTime(createdAt)
	o.UpdatedAt = colTime(updatedAt)
	o.SyncedAt = colTimePtr(syncedAt)
	o.LastSyncedState = decodeState(state)
	return &o, nil
}

func (r *Repository) loadOrganizationRegions(o *models.Organization) error {
	rows, err := r.db.Query(
		"SELECT region_id FROM organization_regions WHERE organization_id = ? ORDER BY region_id",
		o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.RegionIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		o.RegionIDs = append(o.RegionIDs, id)
	}
	return rows.Err()
}

// SaveOrganization inserts or updates an organization, replaces its
// region set and maintains its actor row.
func (r *Repository) SaveOrganization(o *models.Organization, synced bool) error {
	r.touch(o, synced)

	if o.ID == 0 {
		query := `
		INSERT INTO organizations (external_id, sync_uuid, name, also_known_as,
			wikidata_id, aw_id, status_id, institutional_level_id, special_regions,
			created_at, updated_at, synced_at, last_synced_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.Exec(query, o.ExternalID, o.SyncUUID, o.Name,
			encodeStrings(o.AlsoKnownAs), o.WikidataID, o.AwID, o.StatusID,
			o.InstitutionalLevelID, encodeStrings(o.SpecialRegions),
			timeCol(o.CreatedAt), timeCol(o.UpdatedAt), timePtrCol(o.SyncedAt),
			encodeState(o.LastSyncedState))
		if err != nil {
			return fmt.Errorf("failed to insert organization: %w", err)
		}
		o.ID, _ = res.LastInsertId()
	} else {
		query := `
		UPDATE organizations SET external_id = ?, sync_uuid = ?, name = ?,
			also_known_as = ?, wikidata_id = ?, aw_id = ?, status_id = ?,
			institutional_level_id = ?, special_regions = ?,
			updated_at = ?, synced_at = ?, last_synced_state = ?
		WHERE id = ?
		`
		_, err := r.db.Exec(query, o.ExternalID, o.SyncUUID, o.Name,
			encodeStrings(o.AlsoKnownAs), o.WikidataID, o.AwID, o.StatusID,
			o.InstitutionalLevelID, encodeStrings(o.SpecialRegions),
			timeCol(o.UpdatedAt), timePtrCol(o.SyncedAt), encodeState(o.LastSyncedState),
			o.ID)
		if err != nil {
			return fmt.Errorf("failed to update organization: %w", err)
		}
	}

	if err := r.replaceLinks("organization_regions", "organization_id", "region_id", o.ID, o.RegionIDs); err != nil {
		return err
	}

	return r.upsertActor(&models.Actor{ExternalID: o.ExternalID, OrganizationID: &o.ID, Name: o.Name})
}

// GetOrganization retrieves an organization with its regions.
func (r *Repository) GetOrganization(id int64) (*models.Organization, error) {
	stmt, err := r.PrepareStmt("SELECT " + organizationColumns + " FROM organizations WHERE id = ?")
	if err != nil {
		return nil, err
	}
	o, err := scanOrganization(stmt.QueryRow(id))
	if err != nil {
		return nil, notFoundErr(err, "organization", id)
	}
	if err := r.loadOrganizationRegions(o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrganizations returns all organizations with regions, by ID.
func (r *Repository) ListOrganizations() ([]*models.Organization, error) {
	rows, err := r.db.Query("SELECT " + organizationColumns + " FROM organizations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orgs {
		if err := r.loadOrganizationRegions(o); err != nil {
			return nil, err
		}
	}
	return orgs, nil
}

// FindOrganizationsByNameContains returns organizations whose name
// contains the given substring.
func (r *Repository) FindOrganizationsByNameContains(substr string) ([]*models.Organization, error) {
	rows, err := r.db.Query(
		"SELECT "+organizationColumns+" FROM organizations WHERE instr(name, ?) > 0 ORDER BY id",
		substr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// DeleteOrganizationsNotIn removes previously imported organizations
// whose external ID is no longer part of the remote record set.
func (r *Repository) DeleteOrganizationsNotIn(externalIDs []int64) ([]*models.Organization, error) {
	query := "SELECT " + organizationColumns + " FROM organizations WHERE external_id IS NOT NULL"
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

	var stale []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range stale {
		if _, err := r.db.Exec("DELETE FROM organizations WHERE id = ?", o.ID); err != nil {
			return nil, fmt.Errorf("failed to delete organization %d: %w", o.ID, err)
		}
	}
	return stale, nil
}

// replaceLinks replaces the full link set of a many-to-many table for
// one owner row.
func (r *Repository) replaceLinks(table, ownerCol, targetCol string, ownerID int64, targetIDs []int64) error {
	if _, err := r.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, ownerCol), ownerID); err != nil {
		return err
	}
	for _, targetID := range targetIDs {
		if _, err := r.db.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)", table, ownerCol, targetCol),
			ownerID, targetID); err != nil {
			return err
		}
	}
	return nil
}
