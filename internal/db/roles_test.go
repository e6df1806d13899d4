package db

import (
	"testing"

	"github.com/okfde/evidencesync/internal/models"
)

func TestGetRoleBySyncUUID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ro := &models.Role{Name: "mandate"}
	if err := repo.SaveRole(ro, true); err != nil {
		t.Fatalf("SaveRole failed: %v", err)
	}

	got, err := repo.GetRoleBySyncUUID(ro.SyncUUID.String())
	if err != nil {
		t.Fatalf("GetRoleBySyncUUID failed: %v", err)
	}
	if got == nil || got.ID != ro.ID {
		t.Fatalf("expected role %d, got %v", ro.ID, got)
	}

	got, err = repo.GetRoleBySyncUUID("00000000-0000-4000-8000-000000000000")
	if err != nil {
		t.Fatalf("GetRoleBySyncUUID failed: %v", err)
	}
	if got != nil {
		t.Errorf("unknown sync UUID must return nil, got %v", got)
	}
}

func TestDeleteRolesNotIn(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	keepID, staleID := int64(10), int64(11)
	kept := &models.Role{Name: "mandate"}
	kept.ExternalID = &keepID
	stale := &models.Role{Name: "candidacy"}
	stale.ExternalID = &staleID
	local := &models.Role{Name: "board member"}

	for _, ro := range []*models.Role{kept, stale, local} {
		if err := repo.SaveRole(ro, true); err != nil {
			t.Fatalf("SaveRole failed: %v", err)
		}
	}

	deleted, err := repo.DeleteRolesNotIn([]int64{keepID})
	if err != nil {
		t.Fatalf("DeleteRolesNotIn failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != stale.ID {
		t.Fatalf("expected only the stale role to be deleted, got %v", deleted)
	}

	remaining, err := repo.ListRoles()
	if err != nil {
		t.Fatalf("ListRoles failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 remaining roles, got %d", len(remaining))
	}
}
