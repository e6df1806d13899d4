// Package tasks wires the sync pipelines into audited runs. Every task
// writes an import_export_runs row; a failed run keeps empty change
// statistics and the error message in its notes.
package tasks

import (
	"context"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
	"github.com/okfde/evidencesync/internal/sync/aw"
	"github.com/okfde/evidencesync/internal/sync/nocodb"
)

// Runner executes the import and export tasks.
type Runner struct {
	repo *db.Repository
	cfg  *config.Config
}

// NewRunner creates a task runner.
func NewRunner(repo *db.Repository, cfg *config.Config) *Runner {
	return &Runner{repo: repo, cfg: cfg}
}

// finishRun finalizes the audit row and passes the pipeline error
// through. Stats are only collected for successful runs.
func (r *Runner) finishRun(run *models.ImportExportRun, runErr error, stats func() map[string]any) (*models.ImportExportRun, error) {
	if runErr != nil {
		logging.Error("task failed", runErr, map[string]any{"run": run.ID})
		if err := r.repo.FinishRun(run, false, map[string]any{}, runErr.Error()); err != nil {
			logging.Error("failed to finalize run", err, map[string]any{"run": run.ID})
		}
		return run, runErr
	}

	if err := r.repo.FinishRun(run, true, stats(), ""); err != nil {
		return run, err
	}
	return run, nil
}

// ImportNocoDB pulls the remote NocoDB tables into the local database.
func (r *Runner) ImportNocoDB(ctx context.Context, full bool) (*models.ImportExportRun, error) {
	if err := r.cfg.ValidateNocoDB(); err != nil {
		return nil, err
	}

	run, err := r.repo.CreateRun(models.OperationImport, models.EndpointNocoDB, models.EndpointLocal)
	if err != nil {
		return nil, err
	}

	client := nocodb.NewClient(r.cfg.NocoDB.APIURL, r.cfg.NocoDB.APIToken)
	importer := nocodb.NewImporter(r.repo, client, r.cfg, full)
	runErr := importer.Run(ctx)

	return r.finishRun(run, runErr, func() map[string]any {
		return importer.Stats().ToMap()
	})
}

// ExportNocoDB pushes locally created and modified records to NocoDB.
func (r *Runner) ExportNocoDB(ctx context.Context) (*models.ImportExportRun, error) {
	if err := r.cfg.ValidateNocoDB(); err != nil {
		return nil, err
	}

	run, err := r.repo.CreateRun(models.OperationExport, models.EndpointLocal, models.EndpointNocoDB)
	if err != nil {
		return nil, err
	}

	client := nocodb.NewClient(r.cfg.NocoDB.APIURL, r.cfg.NocoDB.APIToken)
	exporter := nocodb.NewExporter(r.repo, client, r.cfg)
	runErr := exporter.Run(ctx)

	return r.finishRun(run, runErr, func() map[string]any {
		return exporter.Stats().ToMap()
	})
}

// ImportAbgeordnetenwatch pulls parliament data, politicians and their
// affiliations from the abgeordnetenwatch API. With onlySetup set only
// the helper tables are imported.
func (r *Runner) ImportAbgeordnetenwatch(ctx context.Context, onlySetup bool) (*models.ImportExportRun, error) {
	if err := r.cfg.ValidateAbgeordnetenwatch(); err != nil {
		return nil, err
	}

	run, err := r.repo.CreateRun(models.OperationImport, models.EndpointAbgeordnetenwatch, models.EndpointLocal)
	if err != nil {
		return nil, err
	}

	client := aw.NewClient(r.cfg.Abgeordnetenwatch.APIURL)
	importer := aw.NewImporter(r.repo, client, r.cfg, onlySetup)
	runErr := importer.Run(ctx)

	return r.finishRun(run, runErr, func() map[string]any {
		return importer.Stats().ToMap()
	})
}
