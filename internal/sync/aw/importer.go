package aw

import (
	"context"
	"encoding/json"
	"time"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/logging"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

// Importer pulls parliaments, elections, legislative periods,
// politicians and their candidacies and mandates from the
// abgeordnetenwatch API. The import is one-way and never overwrites
// values that are already set locally.
type Importer struct {
	repo   *db.Repository
	client *Client
	cfg    *config.Config

	// onlySetup restricts the run to the helper tables, leaving
	// persons and affiliations untouched.
	onlySetup bool

	stats *syncstats.ImportStats
	now   func() time.Time
}

// NewImporter creates an importer.
func NewImporter(repo *db.Repository, client *Client, cfg *config.Config, onlySetup bool) *Importer {
	return &Importer{
		repo:      repo,
		client:    client,
		cfg:       cfg,
		onlySetup: onlySetup,
		stats:     syncstats.NewImportStats(),
		now:       time.Now,
	}
}

// SetNow replaces the clock used for future-date filtering. Tests use
// this to pin the current day.
func (i *Importer) SetNow(now func() time.Time) {
	i.now = now
}

// Stats returns the change statistics collected so far. Helper tables
// are create-only and do not contribute entries.
func (i *Importer) Stats() *syncstats.ImportStats {
	return i.stats
}

// Run imports all entity types in dependency order.
func (i *Importer) Run(ctx context.Context) error {
	type step struct {
		name string
		fn   func(context.Context) error
	}

	steps := []step{
		{"parliaments", i.importParliaments},
		{"elections", i.importElections},
		{"legislative_periods", i.importLegislativePeriods},
	}
	if !i.onlySetup {
		steps = append(steps,
			step{"candidacies", i.importCandidacies},
			step{"mandates", i.importMandates},
		)
	}

	for _, s := range steps {
		started := time.Now()
		if err := s.fn(ctx); err != nil {
			return err
		}
		logging.Info("abgeordnetenwatch import step finished", map[string]any{
			"step":     s.name,
			"duration": time.Since(started).String(),
		})
	}
	return nil
}

func jsonIDList(ids []int64) string {
	b, _ := json.Marshal(ids)
	return string(b)
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

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return parseDate(*s)
}
