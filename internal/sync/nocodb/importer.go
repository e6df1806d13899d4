package nocodb

import (
	"context"
	"fmt"
	"time"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
	"github.com/okfde/evidencesync/internal/uuid"
)

// Importer pulls the remote tables into the local database. Remote
// values win over local ones; records that disappeared remotely are
// deleted locally after each table.
type Importer struct {
	repo   *db.Repository
	client *Client
	cfg    *config.Config
	full   bool
	stats  *syncstats.ImportStats

	// attachment rows collected while walking the evidence table,
	// processed after all evidence records exist.
	attachments []attachmentRow
}

type attachmentRow struct {
	evidenceExternalID int64
	data               Row
}

// NewImporter creates an importer. With full set, the role table is
// imported as well; otherwise roles are expected to exist locally.
func NewImporter(repo *db.Repository, client *Client, cfg *config.Config, full bool) *Importer {
	return &Importer{
		repo:   repo,
		client: client,
		cfg:    cfg,
		full:   full,
		stats:  syncstats.NewImportStats(),
	}
}

// Stats returns the change statistics collected so far.
func (i *Importer) Stats() *syncstats.ImportStats {
	return i.stats
}

// Run imports all tables in dependency order. Roles are only part of a
// full import and come first because affiliations reference them.
func (i *Importer) Run(ctx context.Context) error {
	type step struct {
		model string
		fn    func(context.Context) error
	}

	steps := []step{
		{"Person", i.importPersons},
		{"Organization", i.importOrganizations},
		{"Affiliation", i.importAffiliations},
		{"Evidence", i.importEvidence},
	}
	if i.full {
		steps = append([]step{{"Role", i.importRoles}}, steps...)
	}

	for _, s := range steps {
		started := time.Now()
		if err := s.fn(ctx); err != nil {
			return err
		}
		logging.Info("table import finished", map[string]any{
			"model":    s.model,
			"duration": time.Since(started).String(),
		})
	}
	return nil
}

// handleError aborts the run unless permissive mode downgrades the
// error to a logged skip.
func (i *Importer) handleError(model, msg string) error {
	if !i.cfg.Permissive {
		return errors.New(errors.ErrImportFailed, msg)
	}
	logging.Warn(msg, map[string]any{"model": model})
	i.stats.TrackSkipped(model, msg)
	return nil
}

// decideUpdate classifies a remote row against the local record with
// the same external ID. A row without a sync UUID never updates an
// existing record, and a row whose sync UUID differs from the local one
// aborts the run to avoid silently merging unrelated records.
func (i *Importer) decideUpdate(model string, localID int64, localUUID models.UUID, remoteUUID string) (bool, error) {
	if remoteUUID == "" {
		i.stats.TrackSkipped(model, fmt.Sprintf(
			"%s with ID %d has no sync UUID in import data, skipping update", model, localID))
		return false, nil
	}
	if normalized, err := uuid.Normalize(remoteUUID); err == nil {
		remoteUUID = normalized
	}
	if remoteUUID != localUUID.String() {
		return false, errors.Newf(errors.ErrSyncConflict,
			"Sync UUID conflict for %s with ID %d: local %s, remote %s",
			model, localID, localUUID, remoteUUID)
	}
	return true, nil
}

// vocabID resolves a vocabulary value by name, creating missing
// entries. The configured null label and empty values resolve to nil.
func (i *Importer) vocabID(table, name string) (*int64, error) {
	if name == "" || name == i.cfg.NullLabel {
		return nil, nil
	}
	entry, _, err := i.repo.GetOrCreateVocabEntry(table, name)
	if err != nil {
		return nil, err
	}
	return &entry.ID, nil
}

// vocabIDs resolves a list of vocabulary values, creating missing
// entries and dropping null-label values.
func (i *Importer) vocabIDs(table string, names []string) ([]int64, error) {
	ids := []int64{}
	for _, name := range names {
		id, err := i.vocabID(table, name)
		if err != nil {
			return nil, err
		}
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
