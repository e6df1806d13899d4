package nocodb

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/errors"
	"github.com/okfde/evidencesync/internal/models"
)

func localPerson(t *testing.T, repo *db.Repository, firstName string) *models.Person {
	t.Helper()
	p := &models.Person{FirstName: firstName, LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, false); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	return p
}

func TestExportCreatesNewRecords(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)
	p := localPerson(t, repo, "Maxi")

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportPersons(context.Background()); err != nil {
		t.Fatalf("exportPersons failed: %v", err)
	}

	created := remote.created["actors"]
	if len(created) != 1 {
		t.Fatalf("expected one create payload, got %d", len(created))
	}
	payload := created[0]
	if payload["Vorname(n)"] != "Maxi" || payload["Nachname"] != "Musterfrau" {
		t.Errorf("payload names wrong: %v", payload)
	}
	if payload["Typ"] != "Person" {
		t.Errorf("payload type = %v, want Person", payload["Typ"])
	}
	if payload["Sync-UUID"] != p.SyncUUID.String() {
		t.Errorf("payload sync UUID = %v, want %q", payload["Sync-UUID"], p.SyncUUID)
	}
	if _, ok := payload["Id"]; ok {
		t.Error("create payloads must not carry an Id")
	}

	got, err := repo.GetPerson(p.ID)
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if got.ExternalID == nil {
		t.Fatal("the assigned record ID must be stored")
	}
	if !got.IsSynced() {
		t.Error("a created record must end up synced")
	}
}

func TestExportUpdatesModifiedRecords(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)

	repo.SetNow(func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) })
	p := &models.Person{FirstName: "Maxi", LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, true); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	if err := repo.SetExternalID(p, p.ID, 7); err != nil {
		t.Fatalf("SetExternalID failed: %v", err)
	}

	repo.SetNow(func() time.Time { return time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC) })
	p.FirstName = "Maximiliane"
	if err := repo.SavePerson(p, false); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportPersons(context.Background()); err != nil {
		t.Fatalf("exportPersons failed: %v", err)
	}

	if len(remote.created["actors"]) != 0 {
		t.Errorf("no creates expected, got %v", remote.created["actors"])
	}
	updated := remote.updated["actors"]
	if len(updated) != 1 {
		t.Fatalf("expected one update payload, got %d", len(updated))
	}
	if id, ok := updated[0]["Id"].(float64); !ok || int64(id) != 7 {
		t.Errorf("update payload Id = %v, want 7", updated[0]["Id"])
	}
	if updated[0]["Vorname(n)"] != "Maximiliane" {
		t.Errorf("update payload = %v", updated[0])
	}

	got, err := repo.GetPerson(p.ID)
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if !got.IsSynced() {
		t.Error("an updated record must end up synced")
	}
}

func TestExportSkipsSyncedRecords(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)

	p := &models.Person{FirstName: "Maxi", LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, true); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	if err := repo.SetExternalID(p, p.ID, 7); err != nil {
		t.Fatalf("SetExternalID failed: %v", err)
	}

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportPersons(context.Background()); err != nil {
		t.Fatalf("exportPersons failed: %v", err)
	}

	if len(remote.created["actors"]) != 0 || len(remote.updated["actors"]) != 0 {
		t.Errorf("synced records must not be exported: created %v, updated %v",
			remote.created["actors"], remote.updated["actors"])
	}
}

func TestExportCreateCountMismatch(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)
	remote.shortCreate = true
	localPerson(t, repo, "Maxi")
	localPerson(t, repo, "Erika")

	exp := NewExporter(repo, client, cfg)
	err := exp.exportPersons(context.Background())
	if err == nil {
		t.Fatal("expected a count mismatch error")
	}
	if !errors.Is(err, errors.ErrCountMismatch) {
		t.Errorf("error not classified as count mismatch: %v", err)
	}
	want := "Mismatch: send 2 instance(s), retrieved 1 record ID(s)"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to contain %q", err, want)
	}
}

func exportAffiliationFixture(t *testing.T, repo *db.Repository, withExternalIDs bool) *models.Affiliation {
	t.Helper()

	p := &models.Person{FirstName: "Maxi", LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, true); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	o := &models.Organization{Name: "SPD", AlsoKnownAs: []string{}, SpecialRegions: []string{}}
	if err := repo.SaveOrganization(o, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}
	if withExternalIDs {
		if err := repo.SetExternalID(p, p.ID, 10); err != nil {
			t.Fatalf("SetExternalID failed: %v", err)
		}
		if err := repo.SetExternalID(o, o.ID, 20); err != nil {
			t.Fatalf("SetExternalID failed: %v", err)
		}
	}

	a := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, Comment: "neu"}
	if err := repo.SaveAffiliation(a, false); err != nil {
		t.Fatalf("SaveAffiliation failed: %v", err)
	}
	return a
}

func TestExportAffiliationSetsLinks(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)
	a := exportAffiliationFixture(t, repo, true)

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportAffiliations(context.Background()); err != nil {
		t.Fatalf("exportAffiliations failed: %v", err)
	}

	got, err := repo.GetAffiliation(a.ID)
	if err != nil {
		t.Fatalf("GetAffiliation failed: %v", err)
	}
	if got.ExternalID == nil {
		t.Fatal("the assigned record ID must be stored")
	}
	if !got.IsSynced() {
		t.Error("the affiliation must end up synced after linking")
	}

	if len(remote.links) != 2 {
		t.Fatalf("expected person and organization links, got %v", remote.links)
	}
	recordID := strconv.FormatInt(*got.ExternalID, 10)
	personLink, orgLink := remote.links[0], remote.links[1]
	if personLink.fieldID != "fld-person" || personLink.relatedID != 10 || personLink.recordID != recordID {
		t.Errorf("person link = %+v", personLink)
	}
	if orgLink.fieldID != "fld-org" || orgLink.relatedID != 20 || orgLink.recordID != recordID {
		t.Errorf("organization link = %+v", orgLink)
	}
}

func TestExportAffiliationMissingRelatedExternalID(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)
	a := exportAffiliationFixture(t, repo, false)

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportAffiliations(context.Background()); err != nil {
		t.Fatalf("exportAffiliations failed: %v", err)
	}

	if len(remote.links) != 0 {
		t.Errorf("no link calls expected without related external IDs, got %v", remote.links)
	}
	got, err := repo.GetAffiliation(a.ID)
	if err != nil {
		t.Fatalf("GetAffiliation failed: %v", err)
	}
	if got.IsSynced() {
		t.Error("a record with unresolved links must stay unsynced")
	}
}

func TestExportFailedLinkIsRecorded(t *testing.T) {
	repo, cfg, client, remote := setupRemote(t)
	remote.failLinks = true
	a := exportAffiliationFixture(t, repo, true)

	exp := NewExporter(repo, client, cfg)
	if err := exp.exportAffiliations(context.Background()); err != nil {
		t.Fatalf("a failed link call must not abort the export: %v", err)
	}

	got, err := repo.GetAffiliation(a.ID)
	if err != nil {
		t.Fatalf("GetAffiliation failed: %v", err)
	}
	if got.IsSynced() {
		t.Error("a record with a failed link must stay unsynced")
	}
	if got.ExternalID == nil {
		t.Error("the created record ID must be stored despite the failed link")
	}

	changes := exp.Stats().ToMap()
	affStats, ok := changes["Affiliation"].(map[string]any)
	if !ok {
		t.Fatalf("missing Affiliation stats: %v", changes)
	}
	failed, ok := affStats["failed_links"].([]any)
	if !ok || len(failed) != 1 {
		t.Fatalf("expected one failed link, got %v", affStats["failed_links"])
	}
	entry := failed[0].(map[string]any)
	if entry["field_id"] != "fld-person" {
		t.Errorf("failed link = %v", entry)
	}
}
