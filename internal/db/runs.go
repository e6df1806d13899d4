package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/okfde/evidencesync/internal/models"
)

const runColumns = `id, operation, source, target, started_at, finished_at, success, changes, notes`

func scanRun(row interface{ Scan(...any) error }) (*models.ImportExportRun, error) {
	var run models.ImportExportRun
	var finishedAt sql.NullInt64
	var startedAt int64
	var success int
	var changes string

	err := row.Scan(&run.ID, &run.Operation, &run.Source, &run.Target,
		&startedAt, &finishedAt, &success, &changes, &run.Notes)
	if err != nil {
		return nil, err
	}

	run.StartedAt = colTime(startedAt)
	run.FinishedAt = colTimePtr(finishedAt)
	run.Success = success != 0
	if changes != "" {
		_ = json.Unmarshal([]byte(changes), &run.Changes)
	}
	return &run, nil
}

// CreateRun records the start of an import or export task.
func (r *Repository) CreateRun(operation, source, target string) (*models.ImportExportRun, error) {
	run := &models.ImportExportRun{
		Operation: operation,
		Source:    source,
		Target:    target,
		StartedAt: r.now().UTC(),
		Changes:   map[string]any{},
	}

	res, err := r.db.Exec(`
		INSERT INTO import_export_runs (operation, source, target, started_at, success, changes, notes)
		VALUES (?, ?, ?, ?, 0, '{}', '')`,
		run.Operation, run.Source, run.Target, timeCol(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	run.ID, _ = res.LastInsertId()
	return run, nil
}

// FinishRun finalizes a run exactly once with its outcome.
func (r *Repository) FinishRun(run *models.ImportExportRun, success bool, changes map[string]any, notes string) error {
	if run.FinishedAt != nil {
		return fmt.Errorf("run %d is already finished", run.ID)
	}

	now := r.now().UTC()
	run.FinishedAt = &now
	run.Success = success
	run.Changes = changes
	run.Notes = notes

	if changes == nil {
		changes = map[string]any{}
	}
	encoded, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode run changes: %w", err)
	}

	successVal := 0
	if success {
		successVal = 1
	}
	_, err = r.db.Exec(`
		UPDATE import_export_runs SET finished_at = ?, success = ?, changes = ?, notes = ?
		WHERE id = ?`,
		timeCol(now), successVal, string(encoded), notes, run.ID)
	return err
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(id int64) (*models.ImportExportRun, error) {
	run, err := scanRun(r.db.QueryRow(
		"SELECT "+runColumns+" FROM import_export_runs WHERE id = ?", id))
	if err != nil {
		return nil, notFoundErr(err, "run", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repository) ListRuns(limit int) ([]*models.ImportExportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(
		"SELECT "+runColumns+" FROM import_export_runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.ImportExportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
