package db

import (
	"reflect"
	"testing"

	"github.com/okfde/evidencesync/internal/models"
)

func TestSaveOrganizationRoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	berlin, _, err := repo.GetOrCreateVocabEntry("regions", "Berlin")
	if err != nil {
		t.Fatalf("GetOrCreateVocabEntry failed: %v", err)
	}
	hamburg, _, err := repo.GetOrCreateVocabEntry("regions", "Hamburg")
	if err != nil {
		t.Fatalf("GetOrCreateVocabEntry failed: %v", err)
	}

	o := &models.Organization{
		Name:           "Deutscher Bundestag",
		AlsoKnownAs:    []string{"Bundestag"},
		RegionIDs:      []int64{berlin.ID, hamburg.ID},
		SpecialRegions: []string{"bundesweit"},
	}
	if err := repo.SaveOrganization(o, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}

	got, err := repo.GetOrganization(o.ID)
	if err != nil {
		t.Fatalf("GetOrganization failed: %v", err)
	}
	if got.Name != o.Name {
		t.Errorf("name = %q, want %q", got.Name, o.Name)
	}
	if !reflect.DeepEqual(got.AlsoKnownAs, o.AlsoKnownAs) {
		t.Errorf("also_known_as = %v, want %v", got.AlsoKnownAs, o.AlsoKnownAs)
	}
	if !reflect.DeepEqual(got.RegionIDs, o.RegionIDs) {
		t.Errorf("regions = %v, want %v", got.RegionIDs, o.RegionIDs)
	}
	if !reflect.DeepEqual(got.SpecialRegions, o.SpecialRegions) {
		t.Errorf("special regions = %v, want %v", got.SpecialRegions, o.SpecialRegions)
	}
}

func TestSaveOrganizationReplacesRegions(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	berlin, _, _ := repo.GetOrCreateVocabEntry("regions", "Berlin")
	hamburg, _, _ := repo.GetOrCreateVocabEntry("regions", "Hamburg")

	o := &models.Organization{
		Name:           "Senat",
		AlsoKnownAs:    []string{},
		RegionIDs:      []int64{berlin.ID},
		SpecialRegions: []string{},
	}
	if err := repo.SaveOrganization(o, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}

	o.RegionIDs = []int64{hamburg.ID}
	if err := repo.SaveOrganization(o, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}

	got, err := repo.GetOrganization(o.ID)
	if err != nil {
		t.Fatalf("GetOrganization failed: %v", err)
	}
	if !reflect.DeepEqual(got.RegionIDs, []int64{hamburg.ID}) {
		t.Errorf("regions = %v, want only %d", got.RegionIDs, hamburg.ID)
	}
}

func TestFindOrganizationsByNameContains(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	names := []string{"SPD (EU-Parlament)", "CDU/CSU (EU-Parlament)", "SPD (Bundestag)"}
	for _, name := range names {
		o := &models.Organization{Name: name, AlsoKnownAs: []string{}, SpecialRegions: []string{}}
		if err := repo.SaveOrganization(o, true); err != nil {
			t.Fatalf("SaveOrganization failed: %v", err)
		}
	}

	matches, err := repo.FindOrganizationsByNameContains("EU-Parlament")
	if err != nil {
		t.Fatalf("FindOrganizationsByNameContains failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	matches, err = repo.FindOrganizationsByNameContains("Landtag")
	if err != nil {
		t.Fatalf("FindOrganizationsByNameContains failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}
