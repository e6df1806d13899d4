package db

import (
	"reflect"
	"testing"

	"github.com/okfde/evidencesync/internal/models"
)

func newEvidence(t *testing.T, repo *Repository, externalID int64) *models.Evidence {
	t.Helper()

	e := &models.Evidence{Citation: "Press release"}
	e.ExternalID = &externalID
	if err := repo.SaveEvidence(e); err != nil {
		t.Fatalf("SaveEvidence failed: %v", err)
	}
	return e
}

func TestSaveEvidenceLegalAssessmentRange(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	externalID := int64(7)
	assessment := int64(6)
	e := &models.Evidence{Citation: "Rede vom 1. Juni"}
	e.ExternalID = &externalID
	e.LegalAssessment = &assessment
	if err := repo.SaveEvidence(e); err == nil {
		t.Fatal("SaveEvidence accepted legal assessment outside 1-5")
	}

	assessment = 3
	if err := repo.SaveEvidence(e); err != nil {
		t.Fatalf("SaveEvidence failed for valid assessment: %v", err)
	}
}

func TestSaveEvidenceWithLinks(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	collection, _, err := repo.GetOrCreateVocabEntry("collections", "Angriffe auf die Justiz")
	if err != nil {
		t.Fatalf("GetOrCreateVocabEntry failed: %v", err)
	}
	p := &models.Person{FirstName: "Maxi", LastName: "Musterfrau", AlsoKnownAs: []string{}}
	if err := repo.SavePerson(p, true); err != nil {
		t.Fatalf("SavePerson failed: %v", err)
	}
	actor, err := repo.GetActorForPerson(p.ID)
	if err != nil {
		t.Fatalf("GetActorForPerson failed: %v", err)
	}

	externalID := int64(42)
	e := &models.Evidence{
		Citation:      "Interview vom 3. Mai",
		Description:   "Aussage zur Unabhängigkeit der Gerichte",
		CollectionIDs: []int64{collection.ID},
		OriginatorIDs: []int64{actor.ID},
	}
	e.ExternalID = &externalID
	if err := repo.SaveEvidence(e); err != nil {
		t.Fatalf("SaveEvidence failed: %v", err)
	}

	got, err := repo.GetEvidence(e.ID)
	if err != nil {
		t.Fatalf("GetEvidence failed: %v", err)
	}
	if got.Citation != e.Citation {
		t.Errorf("citation = %q, want %q", got.Citation, e.Citation)
	}
	if !reflect.DeepEqual(got.CollectionIDs, []int64{collection.ID}) {
		t.Errorf("collections = %v, want %v", got.CollectionIDs, []int64{collection.ID})
	}
	if !reflect.DeepEqual(got.OriginatorIDs, []int64{actor.ID}) {
		t.Errorf("originators = %v, want %v", got.OriginatorIDs, []int64{actor.ID})
	}

	e.CollectionIDs = []int64{}
	if err := repo.SaveEvidence(e); err != nil {
		t.Fatalf("SaveEvidence failed: %v", err)
	}
	got, err = repo.GetEvidence(e.ID)
	if err != nil {
		t.Fatalf("GetEvidence failed: %v", err)
	}
	if len(got.CollectionIDs) != 0 {
		t.Errorf("collections not cleared: %v", got.CollectionIDs)
	}
}

func TestDeleteEvidenceCascadesAttachments(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	kept := newEvidence(t, repo, 1)
	stale := newEvidence(t, repo, 2)

	att := &models.Attachment{ExternalID: "file-abc", EvidenceID: stale.ID, Title: "scan.jpg"}
	if err := repo.SaveAttachment(att); err != nil {
		t.Fatalf("SaveAttachment failed: %v", err)
	}

	deleted, err := repo.DeleteEvidenceNotIn([]int64{*kept.ExternalID})
	if err != nil {
		t.Fatalf("DeleteEvidenceNotIn failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != stale.ID {
		t.Fatalf("expected only the stale evidence to be deleted, got %v", deleted)
	}

	attachments, err := repo.AttachmentsByExternalID()
	if err != nil {
		t.Fatalf("AttachmentsByExternalID failed: %v", err)
	}
	if len(attachments) != 0 {
		t.Errorf("attachments must be deleted with their evidence, got %v", attachments)
	}
}

func TestDeleteAttachmentsNotIn(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	e := newEvidence(t, repo, 1)

	for _, id := range []string{"file-keep", "file-stale"} {
		att := &models.Attachment{ExternalID: id, EvidenceID: e.ID, Title: id}
		if err := repo.SaveAttachment(att); err != nil {
			t.Fatalf("SaveAttachment failed: %v", err)
		}
	}

	deleted, err := repo.DeleteAttachmentsNotIn([]string{"file-keep"})
	if err != nil {
		t.Fatalf("DeleteAttachmentsNotIn failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ExternalID != "file-stale" {
		t.Fatalf("expected only file-stale to be deleted, got %v", deleted)
	}

	remaining, err := repo.AttachmentsByExternalID()
	if err != nil {
		t.Fatalf("AttachmentsByExternalID failed: %v", err)
	}
	if _, ok := remaining["file-keep"]; !ok || len(remaining) != 1 {
		t.Errorf("expected only file-keep to remain, got %v", remaining)
	}
}
