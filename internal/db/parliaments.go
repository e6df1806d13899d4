package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const parliamentColumns = `id, aw_id, name, fraction_id, created_at, updated_at`

func scanParliament(row interface{ Scan(...any) error }) (*models.Parliament, error) {
	var p models.Parliament
	var fractionID sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.AwID, &p.Name, &fractionID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.FractionID = intPtr(fractionID)
	p.CreatedAt = colTime(createdAt)
	p.UpdatedAt = colTime(updatedAt)
	return &p, nil
}

// SaveParliament inserts or updates a parliament.
func (r *Repository) SaveParliament(p *models.Parliament) error {
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if p.ID == 0 {
		res, err := r.db.Exec(`
			INSERT INTO parliaments (aw_id, name, fraction_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.AwID, p.Name, p.FractionID, timeCol(p.CreatedAt), timeCol(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert parliament: %w", err)
		}
		p.ID, _ = res.LastInsertId()
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE parliaments SET aw_id = ?, name = ?, fraction_id = ?, updated_at = ?
		WHERE id = ?`,
		p.AwID, p.Name, p.FractionID, timeCol(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update parliament: %w", err)
	}
	return nil
}

// GetParliamentByAwID returns the parliament with the given
// abgeordnetenwatch ID, or nil when it does not exist.
func (r *Repository) GetParliamentByAwID(awID int64) (*models.Parliament, error) {
	p, err := scanParliament(r.db.QueryRow(
		"SELECT "+parliamentColumns+" FROM parliaments WHERE aw_id = ?", awID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListParliaments returns all parliaments ordered by ID.
func (r *Repository) ListParliaments() ([]*models.Parliament, error) {
	rows, err := r.db.Query("SELECT " + parliamentColumns + " FROM parliaments ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parliaments []*models.Parliament
	for rows.Next() {
		p, err := scanParliament(rows)
		if err != nil {
			return nil, err
		}
		parliaments = append(parliaments, p)
	}
	return parliaments, rows.Err()
}

// ============================
// Election operations
// ============================

const electionColumns = `id, aw_id, name, parliament_id, start_date, end_date, created_at, updated_at`

func scanElection(row interface{ Scan(...any) error }) (*models.Election, error) {
	var e models.Election
	var startDate, endDate sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&e.ID, &e.AwID, &e.Name, &e.ParliamentID, &startDate, &endDate,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.StartDate = colDate(startDate)
	e.EndDate = colDate(endDate)
	e.CreatedAt = colTime(createdAt)
	e.UpdatedAt = colTime(updatedAt)
	return &e, nil
}

// SaveElection inserts or updates an election.
func (r *Repository) SaveElection(e *models.Election) error {
	now := r.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	if e.ID == 0 {
		res, err := r.db.Exec(`
			INSERT INTO elections (aw_id, name, parliament_id, start_date, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.AwID, e.Name, e.ParliamentID, dateCol(e.StartDate), dateCol(e.EndDate),
			timeCol(e.CreatedAt), timeCol(e.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}
		e.ID, _ = res.LastInsertId()
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE elections SET aw_id = ?, name = ?, parliament_id = ?, start_date = ?, end_date = ?,
			updated_at = ?
		WHERE id = ?`,
		e.AwID, e.Name, e.ParliamentID, dateCol(e.StartDate), dateCol(e.EndDate),
		timeCol(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	return nil
}

// ElectionsByAwID returns all elections keyed by abgeordnetenwatch ID.
func (r *Repository) ElectionsByAwID() (map[int64]*models.Election, error) {
	rows, err := r.db.Query("SELECT " + electionColumns + " FROM elections")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byAwID := make(map[int64]*models.Election)
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		byAwID[e.AwID] = e
	}
	return byAwID, rows.Err()
}

// ============================
// LegislativePeriod operations
// ============================

const legislativePeriodColumns = `id, aw_id, name, parliament_id, election_id,
	start_date, end_date, created_at, updated_at`

func scanLegislativePeriod(row interface{ Scan(...any) error }) (*models.LegislativePeriod, error) {
	var lp models.LegislativePeriod
	var electionID sql.NullInt64
	var startDate, endDate sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&lp.ID, &lp.AwID, &lp.Name, &lp.ParliamentID, &electionID,
		&startDate, &endDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	lp.ElectionID = intPtr(electionID)
	lp.StartDate = colDate(startDate)
	lp.EndDate = colDate(endDate)
	lp.CreatedAt = colTime(createdAt)
	lp.UpdatedAt = colTime(updatedAt)
	return &lp, nil
}

// SaveLegislativePeriod inserts or updates a legislative period.
func (r *Repository) SaveLegislativePeriod(lp *models.LegislativePeriod) error {
	now := r.now().UTC()
	if lp.CreatedAt.IsZero() {
		lp.CreatedAt = now
	}
	lp.UpdatedAt = now

	if lp.ID == 0 {
		res, err := r.db.Exec(`
			INSERT INTO legislative_periods (aw_id, name, parliament_id, election_id,
				start_date, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			lp.AwID, lp.Name, lp.ParliamentID, lp.ElectionID,
			dateCol(lp.StartDate), dateCol(lp.EndDate), timeCol(lp.CreatedAt), timeCol(lp.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert legislative period: %w", err)
		}
		lp.ID, _ = res.LastInsertId()
		return nil
	}

	_, err := r.db.Exec(`
		UPDATE legislative_periods SET aw_id = ?, name = ?, parliament_id = ?, election_id = ?,
			start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		lp.AwID, lp.Name, lp.ParliamentID, lp.ElectionID,
		dateCol(lp.StartDate), dateCol(lp.EndDate), timeCol(lp.UpdatedAt), lp.ID)
	if err != nil {
		return fmt.Errorf("failed to update legislative period: %w", err)
	}
	return nil
}

// LegislativePeriodsByAwID returns all legislative periods keyed by
// abgeordnetenwatch ID.
func (r *Repository) LegislativePeriodsByAwID() (map[int64]*models.LegislativePeriod, error) {
	rows, err := r.db.Query("SELECT " + legislativePeriodColumns + " FROM legislative_periods")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byAwID := make(map[int64]*models.LegislativePeriod)
	for rows.Next() {
		lp, err := scanLegislativePeriod(rows)
		if err != nil {
			return nil, err
		}
		byAwID[lp.AwID] = lp
	}
	return byAwID, rows.Err()
}
