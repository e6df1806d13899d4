package db

import (
	"database/sql"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const evidenceColumns = `id, external_id, citation, description, attribution_justification,
	reference_info, primary_source_info, comment, evidence_type_id, legal_assessment,
	event_date, publishing_date, documentation_date, reference_url, primary_source_url,
	created_at, updated_at`

func scanEvidence(row interface{ Scan(...any) error }) (*models.Evidence, error) {
	var e models.Evidence
	var externalID int64
	var typeID, legalAssessment sql.NullInt64
	var eventDate, publishingDate, documentationDate, referenceURL, primarySourceURL sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&e.ID, &externalID, &e.Citation, &e.Description, &e.AttributionJustification,
		&e.ReferenceInfo, &e.PrimarySourceInfo, &e.Comment, &typeID, &legalAssessment,
		&eventDate, &publishingDate, &documentationDate, &referenceURL, &primarySourceURL,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.ExternalID = &externalID
	e.EvidenceTypeID = intPtr(typeID)
	e.LegalAssessment = intPtr(legalAssessment)
	e.EventDate = colDate(eventDate)
	e.PublishingDate = colDate(publishingDate)
	e.DocumentationDate = colDate(documentationDate)
	e.ReferenceURL = strPtr(referenceURL)
	e.PrimarySourceURL = strPtr(primarySourceURL)
	e.CreatedAt = colTime(createdAt)
	e.UpdatedAt = colTime(updatedAt)
	return &e, nil
}

var evidenceLinkTables = []struct {
	table, targetCol string
	ids              func(e *models.Evidence) *[]int64
}{
	{"evidence_collections", "collection_id", func(e *models.Evidence) *[]int64 { return &e.CollectionIDs }},
	{"evidence_attribution_problems", "problem_id", func(e *models.Evidence) *[]int64 { return &e.AttributionProblemIDs }},
	{"evidence_originators", "actor_id", func(e *models.Evidence) *[]int64 { return &e.OriginatorIDs }},
	{"evidence_related_actors", "actor_id", func(e *models.Evidence) *[]int64 { return &e.RelatedActorIDs }},
	{"evidence_attribution_evidence", "related_evidence_id", func(e *models.Evidence) *[]int64 { return &e.AttributionEvidenceIDs }},
}

func (r *Repository) loadEvidenceLinks(e *models.Evidence) error {
	for _, lt := range evidenceLinkTables {
		rows, err := r.db.Query(fmt.Sprintf(
			"SELECT %s FROM %s WHERE evidence_id = ? ORDER BY %s", lt.targetCol, lt.table, lt.targetCol),
			e.ID)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		*lt.ids(e) = ids
	}
	return nil
}

// SaveEvidence inserts or updates an evidence record and replaces its
// relation sets.
func (r *Repository) SaveEvidence(e *models.Evidence) error {
	now := r.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	if e.ID == 0 {
		query := `
		INSERT INTO evidence (external_id, citation, description, attribution_justification,
			reference_info, primary_source_info, comment, evidence_type_id, legal_assessment,
			event_date, publishing_date, documentation_date, reference_url, primary_source_url,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := r.db.Exec(query, e.ExternalID, e.Citation, e.Description,
			e.AttributionJustification, e.ReferenceInfo, e.PrimarySourceInfo, e.Comment,
			e.EvidenceTypeID, e.LegalAssessment, dateCol(e.EventDate), dateCol(e.PublishingDate),
			dateCol(e.DocumentationDate), e.ReferenceURL, e.PrimarySourceURL,
			timeCol(e.CreatedAt), timeCol(e.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert evidence: %w", err)
		}
		e.ID, _ = res.LastInsertId()
	} else {
		query := `
		UPDATE evidence SET external_id = ?, citation = ?, description = ?,
			attribution_justification = ?, reference_info = ?, primary_source_info = ?,
			comment = ?, evidence_type_id = ?, legal_assessment = ?, event_date = ?,
			publishing_date = ?, documentation_date = ?, reference_url = ?, primary_source_url = ?,
			updated_at = ?
		WHERE id = ?
		`
		_, err := r.db.Exec(query, e.ExternalID, e.Citation, e.Description,
			e.AttributionJustification, e.ReferenceInfo, e.PrimarySourceInfo, e.Comment,
			e.EvidenceTypeID, e.LegalAssessment, dateCol(e.EventDate), dateCol(e.PublishingDate),
			dateCol(e.DocumentationDate), e.ReferenceURL, e.PrimarySourceURL,
			timeCol(e.UpdatedAt), e.ID)
		if err != nil {
			return fmt.Errorf("failed to update evidence: %w", err)
		}
	}

	for _, lt := range evidenceLinkTables {
		if err := r.replaceLinks(lt.table, "evidence_id", lt.targetCol, e.ID, *lt.ids(e)); err != nil {
			return err
		}
	}
	return nil
}

// GetEvidence retrieves an evidence record with its relation sets.
func (r *Repository) GetEvidence(id int64) (*models.Evidence, error) {
	stmt, err := r.PrepareStmt("SELECT " + evidenceColumns + " FROM evidence WHERE id = ?")
	if err != nil {
		return nil, err
	}
	e, err := scanEvidence(stmt.QueryRow(id))
	if err != nil {
		return nil, notFoundErr(err, "evidence", id)
	}
	if err := r.loadEvidenceLinks(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvidence returns all evidence records with relation sets.
func (r *Repository) ListEvidence() ([]*models.Evidence, error) {
	rows, err := r.db.Query("SELECT " + evidenceColumns + " FROM evidence ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range records {
		if err := r.loadEvidenceLinks(e); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// EvidenceByExternalID returns all evidence keyed by remote record ID.
func (r *Repository) EvidenceByExternalID() (map[int64]*models.Evidence, error) {
	records, err := r.ListEvidence()
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[int64]*models.Evidence, len(records))
	for _, e := range records {
		byExternalID[*e.ExternalID] = e
	}
	return byExternalID, nil
}

// DeleteEvidenceNotIn removes evidence records whose external ID is no
// longer part of the remote record set.
func (r *Repository) DeleteEvidenceNotIn(externalIDs []int64) ([]*models.Evidence, error) {
	query := "SELECT " + evidenceColumns + " FROM evidence"
	args := []any{}
	if len(externalIDs) > 0 {
		query += " WHERE external_id NOT IN (" + placeholders(len(externalIDs)) + ")"
		args = int64Args(externalIDs)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []*models.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range stale {
		if _, err := r.db.Exec("DELETE FROM evidence WHERE id = ?", e.ID); err != nil {
			return nil, fmt.Errorf("failed to delete evidence %d: %w", e.ID, err)
		}
	}
	return stale, nil
}

// ============================
// Attachment operations
// ============================

const attachmentColumns = `id, external_id, evidence_id, title, mimetype, size, width, height,
	file_path, created_at, updated_at`

func scanAttachment(row interface{ Scan(...any) error }) (*models.Attachment, error) {
	var a models.Attachment
	var mimetype, filePath sql.NullString
	var size, width, height sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &a.ExternalID, &a.EvidenceID, &a.Title, &mimetype,
		&size, &width, &height, &filePath, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.Mimetype = strPtr(mimetype)
	a.Size = intPtr(size)
	a.Width = intPtr(width)
	a.Height = intPtr(height)
	a.FilePath = strPtr(filePath)
	a.CreatedAt = colTime(createdAt)
	a.UpdatedAt = colTime(updatedAt)
	return &a, nil
}

// SaveAttachment inserts or updates an attachment.
func (r *Repository) SaveAttachment(a *models.Attachment) error {
	now := r.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	if a.ID == 0 {
		res, err := r.db.Exec(`
			INSERT INTO attachments (external_id, evidence_id, title, mimetype, size, width, height,
				file_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ExternalID, a.EvidenceID, a.Title, a.Mimetype, a.Size, a.Width, a.Height,
			a.FilePath, timeCol(a.CreatedAt), timeCol(a.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert attachment: %w", err)
		}
		a.ID, _ = res.LastInsertId()
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE attachments SET external_id = ?, evidence_id = ?, title = ?, mimetype = ?,
			size = ?, width = ?, height = ?, file_path = ?, updated_at = ?
		WHERE id = ?`,
		a.ExternalID, a.EvidenceID, a.Title, a.Mimetype, a.Size, a.Width, a.Height,
		a.FilePath, timeCol(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update attachment: %w", err)
	}
	return nil
}

// ListAttachmentsForEvidence returns the attachments of one evidence
// record ordered by ID.
func (r *Repository) ListAttachmentsForEvidence(evidenceID int64) ([]*models.Attachment, error) {
	rows, err := r.db.Query(
		"SELECT "+attachmentColumns+" FROM attachments WHERE evidence_id = ? ORDER BY id",
		evidenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// DeleteAttachment removes an attachment row.
func (r *Repository) DeleteAttachment(id int64) error {
	_, err := r.db.Exec("DELETE FROM attachments WHERE id = ?", id)
	return err
}

// AttachmentsByExternalID returns all attachments keyed by remote file ID.
func (r *Repository) AttachmentsByExternalID() (map[string]*models.Attachment, error) {
	rows, err := r.db.Query("SELECT " + attachmentColumns + " FROM attachments ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byExternalID := make(map[string]*models.Attachment)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		byExternalID[a.ExternalID] = a
	}
	return byExternalID, rows.Err()
}

// DeleteAttachmentsNotIn removes attachments whose remote file ID is no
// longer part of the remote record set.
func (r *Repository) DeleteAttachmentsNotIn(externalIDs []string) ([]*models.Attachment, error) {
	query := "SELECT " + attachmentColumns + " FROM attachments"
	args := []any{}
	if len(externalIDs) > 0 {
		query += " WHERE external_id NOT IN (" + placeholders(len(externalIDs)) + ")"
		for _, id := range externalIDs {
			args = append(args, id)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []*models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range stale {
		if err := r.DeleteAttachment(a.ID); err != nil {
			return nil, err
		}
	}
	return stale, nil
}
