package models

// Role is a named function a person can hold within an organization,
// e.g. a parliamentary mandate or a supervisory board seat.
type Role struct {
	ID int64 `json:"id"`
	SyncMeta

	Name string `json:"name"`
}

func (r *Role) Meta() *SyncMeta { return &r.SyncMeta }

func (r *Role) ModelName() string { return "Role" }

func (r *Role) SyncFields() map[string]any {
	return map[string]any{
		"external_id": r.ExternalID,
		"sync_uuid":   r.SyncUUID.String(),
		"name":        r.Name,
	}
}
