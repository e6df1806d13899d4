package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

var vocabTables = map[string]bool{
	models.VocabPersonStatus:       true,
	models.VocabOrganizationStatus: true,
	models.VocabInstitutionalLevel: true,
	models.VocabEvidenceType:       true,
	models.VocabCollection:         true,
	models.VocabAttributionProblem: true,
	models.VocabRegion:             true,
}

func vocabTable(table string) string {
	if !vocabTables[table] {
		panic(fmt.Sprintf("unknown vocabulary table %q", table))
	}
	return table
}

// GetVocabEntry looks up a vocabulary entry by name. Returns nil when
// no entry with that name exists.
func (r *Repository) GetVocabEntry(table, name string) (*models.VocabEntry, error) {
	stmt, err := r.PrepareStmt(
		fmt.Sprintf("SELECT id, name FROM %s WHERE name = ?", vocabTable(table)))
	if err != nil {
		return nil, err
	}

	var e models.VocabEntry
	err = stmt.QueryRow(name).Scan(&e.ID, &e.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// GetOrCreateVocabEntry looks up a vocabulary entry by name, creating
// it when missing. The second return value reports creation.
func (r *Repository) GetOrCreateVocabEntry(table, name string) (*models.VocabEntry, bool, error) {
	e, err := r.GetVocabEntry(table, name)
	if err != nil {
		return nil, false, err
	}
	if e != nil {
		return e, false, nil
	}

	res, err := r.db.Exec(
		fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", vocabTable(table)), name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s entry %q: %w", table, name, err)
	}
	id, _ := res.LastInsertId()
	return &models.VocabEntry{ID: id, Name: name}, true, nil
}

// ListVocabEntries returns all entries of one vocabulary table.
func (r *Repository) ListVocabEntries(table string) ([]*models.VocabEntry, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT id, name FROM %s ORDER BY id", vocabTable(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.VocabEntry
	for rows.Next() {
		var e models.VocabEntry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CreateVocabEntry inserts a vocabulary entry with a fixed name.
func (r *Repository) CreateVocabEntry(table, name string) (*models.VocabEntry, error) {
	e, _, err := r.GetOrCreateVocabEntry(table, name)
	return e, err
}
