package db

import (
	"testing"

	"github.com/okfde/evidencesync/internal/models"
)

func affiliationFixtures(t *testing.T, repo *Repository) (*models.Person, *models.Organization, *models.Role) {
	t.Helper()

	p := &models.Person{FirstName: "Maxi", LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, true); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	o := &models.Organization{Name: "SPD (EU-Parlament)", AlsoKnownAs: []string{}, SpecialRegions: []string{}}
	if err := repo.SaveOrganization(o, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}
	ro := &models.Role{Name: "mandate"}
	if err := repo.SaveRole(ro, true); err != nil {
		t.Fatalf("SaveRole failed: %v", err)
	}
	return p, o, ro
}

func TestSaveAffiliationRoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	p, o, ro := affiliationFixtures(t, repo)

	awID := int64(54321)
	comment := "Re-elected"
	a := &models.Affiliation{
		PersonID:       p.ID,
		OrganizationID: o.ID,
		RoleID:         &ro.ID,
		StartDate:      datePtr(2024, 7, 16),
		Comment:        comment,
		AwID:           &awID,
	}
	if err := repo.SaveAffiliation(a, false); err != nil {
		t.Fatalf("SaveAffiliation failed: %v", err)
	}

	got, err := repo.GetAffiliation(a.ID)
	if err != nil {
		t.Fatalf("GetAffiliation failed: %v", err)
	}
	if got.PersonID != p.ID || got.OrganizationID != o.ID {
		t.Errorf("person/organization = %d/%d, want %d/%d", got.PersonID, got.OrganizationID, p.ID, o.ID)
	}
	if got.RoleID == nil || *got.RoleID != ro.ID {
		t.Errorf("role = %v, want %d", got.RoleID, ro.ID)
	}
	if got.StartDate == nil || !got.StartDate.Equal(*a.StartDate) {
		t.Errorf("start date = %v, want %v", got.StartDate, a.StartDate)
	}
	if got.EndDate != nil {
		t.Errorf("end date = %v, want nil", got.EndDate)
	}
	if got.Comment != comment {
		t.Errorf("comment = %q, want %q", got.Comment, comment)
	}
	if got.IsSynced() {
		t.Error("unsynced save must leave the affiliation unsynced")
	}
}

func TestAffiliationsByAwID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	p, o, ro := affiliationFixtures(t, repo)

	awID := int64(67890)
	withAw := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, RoleID: &ro.ID, AwID: &awID}
	withoutAw := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, RoleID: &ro.ID}
	for _, a := range []*models.Affiliation{withAw, withoutAw} {
		if err := repo.SaveAffiliation(a, false); err != nil {
			t.Fatalf("SaveAffiliation failed: %v", err)
		}
	}

	byAwID, err := repo.AffiliationsByAwID()
	if err != nil {
		t.Fatalf("AffiliationsByAwID failed: %v", err)
	}
	if len(byAwID) != 1 {
		t.Fatalf("expected 1 affiliation with an aw ID, got %d", len(byAwID))
	}
	if byAwID[awID] == nil || byAwID[awID].ID != withAw.ID {
		t.Errorf("expected affiliation %d under key %d", withAw.ID, awID)
	}
}

func TestDeleteAffiliationsNotIn(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	p, o, ro := affiliationFixtures(t, repo)

	keepID, staleID := int64(100), int64(101)
	kept := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, RoleID: &ro.ID}
	kept.ExternalID = &keepID
	stale := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, RoleID: &ro.ID}
	stale.ExternalID = &staleID
	local := &models.Affiliation{PersonID: p.ID, OrganizationID: o.ID, RoleID: &ro.ID}
	for _, a := range []*models.Affiliation{kept, stale, local} {
		if err := repo.SaveAffiliation(a, true); err != nil {
			t.Fatalf("SaveAffiliation failed: %v", err)
		}
	}

	deleted, err := repo.DeleteAffiliationsNotIn([]int64{keepID})
	if err != nil {
		t.Fatalf("DeleteAffiliationsNotIn failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != stale.ID {
		t.Fatalf("expected only the stale affiliation to be deleted, got %v", deleted)
	}

	remaining, err := repo.ListAffiliations()
	if err != nil {
		t.Fatalf("ListAffiliations failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 remaining affiliations, got %d", len(remaining))
	}
}
