package db

import (
	"testing"
	"time"

	"github.com/okfde/evidencesync/internal/models"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestSaveParliamentRoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	fraction := &models.Organization{Name: "Fraktionen EU-Parlament", AlsoKnownAs: []string{}, SpecialRegions: []string{}}
	if err := repo.SaveOrganization(fraction, true); err != nil {
		t.Fatalf("SaveOrganization failed: %v", err)
	}

	p := &models.Parliament{AwID: 1, Name: "EU-Parlament", FractionID: &fraction.ID}
	if err := repo.SaveParliament(p); err != nil {
		t.Fatalf("SaveParliament failed: %v", err)
	}

	got, err := repo.GetParliamentByAwID(1)
	if err != nil {
		t.Fatalf("GetParliamentByAwID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a parliament")
	}
	if got.Name != "EU-Parlament" {
		t.Errorf("name = %q, want EU-Parlament", got.Name)
	}
	if got.FractionID == nil || *got.FractionID != fraction.ID {
		t.Errorf("fraction = %v, want %d", got.FractionID, fraction.ID)
	}
}

func TestGetParliamentByAwIDMissing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.GetParliamentByAwID(999)
	if err != nil {
		t.Fatalf("GetParliamentByAwID failed: %v", err)
	}
	if got != nil {
		t.Errorf("missing parliament must return nil, got %v", got)
	}
}

func TestElectionsAndPeriodsByAwID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	p := &models.Parliament{AwID: 1, Name: "EU-Parlament"}
	if err := repo.SaveParliament(p); err != nil {
		t.Fatalf("SaveParliament failed: %v", err)
	}

	e := &models.Election{
		AwID:         151,
		Name:         "EU-Parlament Wahl 2024",
		ParliamentID: p.ID,
		StartDate:    datePtr(2024, 6, 6),
		EndDate:      datePtr(2024, 6, 9),
	}
	if err := repo.SaveElection(e); err != nil {
		t.Fatalf("SaveElection failed: %v", err)
	}

	lp := &models.LegislativePeriod{
		AwID:         155,
		Name:         "EU-Parlament 2024 - 2029",
		ParliamentID: p.ID,
		ElectionID:   &e.ID,
		StartDate:    datePtr(2024, 7, 16),
		EndDate:      datePtr(2029, 7, 15),
	}
	if err := repo.SaveLegislativePeriod(lp); err != nil {
		t.Fatalf("SaveLegislativePeriod failed: %v", err)
	}

	elections, err := repo.ElectionsByAwID()
	if err != nil {
		t.Fatalf("ElectionsByAwID failed: %v", err)
	}
	gotE, ok := elections[151]
	if !ok {
		t.Fatal("election 151 not found")
	}
	if gotE.EndDate == nil || !gotE.EndDate.Equal(*e.EndDate) {
		t.Errorf("election end date = %v, want %v", gotE.EndDate, e.EndDate)
	}

	periods, err := repo.LegislativePeriodsByAwID()
	if err != nil {
		t.Fatalf("LegislativePeriodsByAwID failed: %v", err)
	}
	gotLP, ok := periods[155]
	if !ok {
		t.Fatal("legislative period 155 not found")
	}
	if gotLP.ElectionID == nil || *gotLP.ElectionID != e.ID {
		t.Errorf("period election = %v, want %d", gotLP.ElectionID, e.ID)
	}
}
