package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/okfde/evidencesync/internal/models"
	syncstats "github.com/okfde/evidencesync/internal/sync"
	"github.com/okfde/evidencesync/internal/uuid"
)

// Repository provides CRUD operations for all models.
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries
	stmtCache sync.Map // map[string]*sql.Stmt

	// now is swappable in tests
	now func() time.Time
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// SetNow overrides the clock. Intended for tests.
func (r *Repository) SetNow(now func() time.Time) {
	r.now = now
}

// touch advances the model's timestamps for a save and mints a sync
// UUID on first save. A synced save keeps synced_at equal to
// updated_at and refreshes the last synced snapshot.
func (r *Repository) touch(m models.Syncable, synced bool) {
	meta := m.Meta()
	now := r.now().UTC()
	if meta.SyncUUID == "" {
		meta.SyncUUID = models.UUID(uuid.New())
	}
	if synced {
		meta.TouchSynced(now)
		meta.LastSyncedState = snapshot(m)
	} else {
		meta.Touch(now)
		// Timestamps are stored at millisecond resolution. A
		// modification in the same millisecond as the last synced
		// save must still read as modified after reload.
		if meta.SyncedAt != nil && meta.UpdatedAt.UnixMilli() <= meta.SyncedAt.UnixMilli() {
			meta.UpdatedAt = meta.SyncedAt.Add(time.Millisecond)
		}
	}
}

// snapshot normalizes the current field values for storage as the
// last synced state.
func snapshot(m models.Syncable) map[string]any {
	return syncstats.Normalize(m.SyncFields())
}

// MarkSynced sets the record's synced_at to its current updated_at and
// stores the current field snapshot, without counting as a
// modification.
func (r *Repository) MarkSynced(m models.Syncable, id int64) error {
	meta := m.Meta()
	meta.MarkSynced(snapshot(m))

	query := fmt.Sprintf(
		"UPDATE %s SET synced_at = updated_at, last_synced_state = ? WHERE id = ?",
		tableFor(m.ModelName()))
	_, err := r.db.Exec(query, encodeState(meta.LastSyncedState), id)
	return err
}

// SetExternalID persists a freshly assigned remote record ID without
// touching the record's timestamps. The actor mirror of a person or
// organization is updated alongside.
func (r *Repository) SetExternalID(m models.Syncable, id, externalID int64) error {
	m.Meta().ExternalID = &externalID
	query := fmt.Sprintf("UPDATE %s SET external_id = ? WHERE id = ?", tableFor(m.ModelName()))
	if _, err := r.db.Exec(query, externalID, id); err != nil {
		return err
	}

	switch m.ModelName() {
	case "Person":
		_, err := r.db.Exec("UPDATE actors SET external_id = ? WHERE person_id = ?", externalID, id)
		return err
	case "Organization":
		_, err := r.db.Exec("UPDATE actors SET external_id = ? WHERE organization_id = ?", externalID, id)
		return err
	}
	return nil
}

func tableFor(model string) string {
	switch model {
	case "Person":
		return "persons"
	case "Organization":
		return "organizations"
	case "Role":
		return "roles"
	case "Affiliation":
		return "affiliations"
	default:
		panic(fmt.Sprintf("unknown syncable model %q", model))
	}
}
