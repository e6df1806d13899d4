package models

import (
	"time"
)

// ImportMeta carries the bookkeeping fields shared by every model that
// is imported from a remote system. ExternalID is the remote record ID;
// it is nil for records that only exist locally.
type ImportMeta struct {
	ExternalID *int64    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SyncMeta extends ImportMeta for models that take part in two-way
// synchronization. SyncUUID is minted locally on first save and never
// changes afterwards; it identifies the record across systems even when
// the remote row ID changes. LastSyncedState holds the field snapshot
// taken at the last successful sync.
type SyncMeta struct {
	ImportMeta
	SyncUUID        UUID           `json:"sync_uuid"`
	SyncedAt        *time.Time     `json:"synced_at"`
	LastSyncedState map[string]any `json:"last_synced_state"`
}

// IsSynced reports whether the record has been synced since its last
// modification. Holds exactly when SyncedAt equals UpdatedAt.
func (m *SyncMeta) IsSynced() bool {
	return m.SyncedAt != nil && m.SyncedAt.Equal(m.UpdatedAt)
}

// MarkSynced records the current state as synced without counting as a
// modification: SyncedAt is set to UpdatedAt, which stays untouched.
func (m *SyncMeta) MarkSynced(state map[string]any) {
	t := m.UpdatedAt
	m.SyncedAt = &t
	m.LastSyncedState = state
}

// Touch advances UpdatedAt, making the record count as modified.
func (m *SyncMeta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// TouchSynced advances UpdatedAt and SyncedAt together, so the save
// does not flag the record as locally modified.
func (m *SyncMeta) TouchSynced(now time.Time) {
	m.Touch(now)
	t := m.UpdatedAt
	m.SyncedAt = &t
}

// Syncable is implemented by every model participating in two-way sync.
type Syncable interface {
	Meta() *SyncMeta
	SyncFields() map[string]any
	ModelName() string
}

// DateString formats a date-valued field for snapshots and payloads.
func DateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// TimeString formats a timestamp field for snapshots and payloads.
func TimeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
