package nocodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
)

// Exporter pushes locally created or modified records to the remote
// tables. Records without an external ID are batch-created, unsynced
// records with one are batch-updated; relation links are set through
// separate link calls afterwards.
type Exporter struct {
	repo   *db.Repository
	client *Client
	cfg    *config.Config
	stats  *syncstats.ExportStats
}

// NewExporter creates an exporter.
func NewExporter(repo *db.Repository, client *Client, cfg *config.Config) *Exporter {
	return &Exporter{
		repo:   repo,
		client: client,
		cfg:    cfg,
		stats:  syncstats.NewExportStats(),
	}
}

// Stats returns the change statistics collected so far.
func (e *Exporter) Stats() *syncstats.ExportStats {
	return e.stats
}

// Run exports all syncable tables.
func (e *Exporter) Run(ctx context.Context) error {
	steps := []func(context.Context) error{
		e.exportPersons,
		e.exportOrganizations,
		e.exportRoles,
		e.exportAffiliations,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// recordLink is one relation of an exported record that is pushed via
// a separate link call.
type recordLink struct {
	field          string
	fieldID        string
	relatedLocalID int64
	relatedExtID   *int64
}

// exportRecord is one instance prepared for export.
type exportRecord struct {
	item    models.Syncable
	localID int64
	payload map[string]any
	links   []recordLink
	// save performs a synced save, refreshing the stored snapshot.
	save func() error
}

// exportTable runs the create and update passes for one model.
func (e *Exporter) exportTable(ctx context.Context, model, table string, records []exportRecord) error {
	var toCreate, toUpdate []exportRecord
	for _, rec := range records {
		if rec.item.Meta().ExternalID == nil {
			toCreate = append(toCreate, rec)
		} else if !rec.item.Meta().IsSynced() {
			toUpdate = append(toUpdate, rec)
		}
	}

	if len(toCreate) > 0 {
		if err := e.createRecords(ctx, model, table, toCreate); err != nil {
			return err
		}
	}
	if len(toUpdate) > 0 {
		if err := e.updateRecords(ctx, model, table, toUpdate); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) createRecords(ctx context.Context, model, table string, records []exportRecord) error {
	payloads := make([]map[string]any, len(records))
	for i, rec := range records {
		payloads[i] = rec.payload
	}

	logging.Info("creating records", map[string]any{
		"model": model,
		"count": len(records),
	})

	ids, err := e.client.CreateRecords(ctx, table, payloads)
	if err != nil {
		return err
	}
	if len(ids) != len(records) {
		return errors.Newf(errors.ErrCountMismatch,
			"Mismatch: send %d instance(s), retrieved %d record ID(s)", len(records), len(ids))
	}

	for i, rec := range records {
		if err := e.repo.SetExternalID(rec.item, rec.localID, ids[i]); err != nil {
			return err
		}
		e.stats.TrackCreated(model, rec.localID, rec.item.SyncFields())

		if !e.setLinks(ctx, model, table, rec) {
			continue
		}
		if err := rec.save(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) updateRecords(ctx context.Context, model, table string, records []exportRecord) error {
	payloads := make([]map[string]any, len(records))
	for i, rec := range records {
		payload := make(map[string]any, len(rec.payload)+1)
		for k, v := range rec.payload {
			payload[k] = v
		}
		payload["Id"] = rec.item.Meta().ExternalID
		payloads[i] = payload
	}

	logging.Info("updating records", map[string]any{
		"model": model,
		"count": len(records),
	})

	if err := e.client.UpdateRecords(ctx, table, payloads); err != nil {
		return err
	}

	for _, rec := range records {
		diff := syncstats.Diff(rec.item.Meta().LastSyncedState, rec.item.SyncFields())
		e.stats.TrackUpdated(model, rec.localID, diff)

		if !e.setLinks(ctx, model, table, rec) {
			continue
		}
		if err := e.repo.MarkSynced(rec.item, rec.localID); err != nil {
			return err
		}
	}
	return nil
}

// setLinks pushes the changed relation links of one record. A relation
// already reflected in the stored snapshot is skipped. Any failure
// leaves the record unsynced; a failed link call is recorded and aborts
// the remaining links of this record.
func (e *Exporter) setLinks(ctx context.Context, model, table string, rec exportRecord) bool {
	meta := rec.item.Meta()
	recordID := *meta.ExternalID

	for _, link := range rec.links {
		if last, ok := meta.LastSyncedState[link.field]; ok && last != nil &&
			syncstats.Equals(last, link.relatedLocalID) {
			continue
		}

		if link.relatedExtID == nil {
			logging.Error("cannot set link", errors.Newf(errors.ErrMissingRelation,
				"Related %s of %s with ID %d has no external ID", link.field, model, rec.localID))
			return false
		}

		if err := e.client.LinkRecord(ctx, table, link.fieldID, recordID, *link.relatedExtID); err != nil {
			logging.Error(fmt.Sprintf(
				"Error setting link for field %s for %s with ID %d to %d",
				link.fieldID, model, recordID, *link.relatedExtID), err)
			e.stats.TrackFailedLink(model, link.fieldID, recordID, *link.relatedExtID)
			return false
		}
	}
	return true
}

// vocabNames loads one vocabulary table keyed by ID.
func (e *Exporter) vocabNames(table string) (map[int64]string, error) {
	entries, err := e.repo.ListVocabEntries(table)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(entries))
	for _, entry := range entries {
		names[entry.ID] = entry.Name
	}
	return names, nil
}

// Empty strings and lists are sent as null.
func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func strPtrOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return strOrNil(*s)
}

func intPtrOrNil(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func joinOrNil(values []string) any {
	return strOrNil(strings.Join(values, ","))
}

func vocabNameOrNil(id *int64, names map[int64]string) any {
	if id == nil {
		return nil
	}
	return strOrNil(names[*id])
}

func (e *Exporter) exportPersons(ctx context.Context) error {
	persons, err := e.repo.ListPersons()
	if err != nil {
		return err
	}
	statuses, err := e.vocabNames(models.VocabPersonStatus)
	if err != nil {
		return err
	}

	records := make([]exportRecord, 0, len(persons))
	for _, p := range persons {
		p := p
		records = append(records, exportRecord{
			item:    p,
			localID: p.ID,
			payload: map[string]any{
				"Vorname(n)":                        strOrNil(p.FirstName),
				"Nachname":                          strOrNil(p.LastName),
				"Titel":                             strPtrOrNil(p.Title),
				"Spitzname":                         joinOrNil(p.AlsoKnownAs),
				"Wikidata-ID":                       strPtrOrNil(p.WikidataID),
				"abgeordnetenwatch.de Politiker-ID": intPtrOrNil(p.AwID),
				"Status (Person)":                   vocabNameOrNil(p.StatusID, statuses),
				"Sync-UUID":                         p.SyncUUID.String(),
				"Typ":                               "Person",
			},
			save: func() error { return e.repo.SavePerson(p, true) },
		})
	}
	return e.exportTable(ctx, "Person", e.cfg.NocoDB.ActorTable, records)
}

func (e *Exporter) exportOrganizations(ctx context.Context) error {
	organizations, err := e.repo.ListOrganizations()
	if err != nil {
		return err
	}
	statuses, err := e.vocabNames(models.VocabOrganizationStatus)
	if err != nil {
		return err
	}
	levels, err := e.vocabNames(models.VocabInstitutionalLevel)
	if err != nil {
		return err
	}
	regions, err := e.vocabNames(models.VocabRegion)
	if err != nil {
		return err
	}

	records := make([]exportRecord, 0, len(organizations))
	for _, o := range organizations {
		o := o

		regionNames := make([]string, 0, len(o.RegionIDs)+len(o.SpecialRegions))
		for _, id := range o.RegionIDs {
			if name := regions[id]; name != "" {
				regionNames = append(regionNames, name)
			}
		}
		regionNames = append(regionNames, o.SpecialRegions...)

		records = append(records, exportRecord{
			item:    o,
			localID: o.ID,
			payload: map[string]any{
				"Organisationsname":     strOrNil(o.Name),
				"Institutionsebene":     vocabNameOrNil(o.InstitutionalLevelID, levels),
				"Abkürzung":             joinOrNil(o.AlsoKnownAs),
				"Wikidata-ID":           strPtrOrNil(o.WikidataID),
				"Status (Organisation)": vocabNameOrNil(o.StatusID, statuses),
				"Region(en)":            joinOrNil(regionNames),
				"Sync-UUID":             o.SyncUUID.String(),
				"Typ":                   "Organisation",
			},
			save: func() error { return e.repo.SaveOrganization(o, true) },
		})
	}
	return e.exportTable(ctx, "Organization", e.cfg.NocoDB.ActorTable, records)
}

func (e *Exporter) exportRoles(ctx context.Context) error {
	roles, err := e.repo.ListRoles()
	if err != nil {
		return err
	}

	records := make([]exportRecord, 0, len(roles))
	for _, ro := range roles {
		ro := ro
		records = append(records, exportRecord{
			item:    ro,
			localID: ro.ID,
			payload: map[string]any{
				"Bezeichnung": strOrNil(ro.Name),
				"Sync-UUID":   ro.SyncUUID.String(),
			},
			save: func() error { return e.repo.SaveRole(ro, true) },
		})
	}
	return e.exportTable(ctx, "Role", e.cfg.NocoDB.RoleTable, records)
}

func (e *Exporter) exportAffiliations(ctx context.Context) error {
	affiliations, err := e.repo.ListAffiliations()
	if err != nil {
		return err
	}
	persons, err := e.repo.ListPersons()
	if err != nil {
		return err
	}
	organizations, err := e.repo.ListOrganizations()
	if err != nil {
		return err
	}
	roles, err := e.repo.ListRoles()
	if err != nil {
		return err
	}

	personExt := make(map[int64]*int64, len(persons))
	for _, p := range persons {
		personExt[p.ID] = p.ExternalID
	}
	orgExt := make(map[int64]*int64, len(organizations))
	for _, o := range organizations {
		orgExt[o.ID] = o.ExternalID
	}
	roleExt := make(map[int64]*int64, len(roles))
	for _, ro := range roles {
		roleExt[ro.ID] = ro.ExternalID
	}

	records := make([]exportRecord, 0, len(affiliations))
	for _, a := range affiliations {
		a := a

		links := []recordLink{
			{
				field:          "person",
				fieldID:        e.cfg.NocoDB.AffiliationPersonFieldID,
				relatedLocalID: a.PersonID,
				relatedExtID:   personExt[a.PersonID],
			},
			{
				field:          "organization",
				fieldID:        e.cfg.NocoDB.AffiliationOrganizationFieldID,
				relatedLocalID: a.OrganizationID,
				relatedExtID:   orgExt[a.OrganizationID],
			},
		}
		if a.RoleID != nil {
			links = append(links, recordLink{
				field:          "role",
				fieldID:        e.cfg.NocoDB.AffiliationRoleFieldID,
				relatedLocalID: *a.RoleID,
				relatedExtID:   roleExt[*a.RoleID],
			})
		}

		records = append(records, exportRecord{
			item:    a,
			localID: a.ID,
			payload: map[string]any{
				"Begonnen am":             strPtrOrNil(a.StartDateString),
				"Ausgeübt bis":            strPtrOrNil(a.EndDateString),
				"Referenz-URL":            strPtrOrNil(a.ReferenceURL),
				"Kommentar/Notiz":         strOrNil(a.Comment),
				"abgeordnetenwatch.de-ID": intPtrOrNil(a.AwID),
				"Sync-UUID":               a.SyncUUID.String(),
			},
			links: links,
			save:  func() error { return e.repo.SaveAffiliation(a, true) },
		})
	}
	return e.exportTable(ctx, "Affiliation", e.cfg.NocoDB.AffiliationTable, records)
}
