package models

import "time"

// Affiliation connects a person to an organization in a role over a
// period of time. The *DateString fields keep the free-text date
// values from the remote table when they cannot be parsed as dates.
type Affiliation struct {
	ID int64 `json:"id"`
	SyncMeta

	PersonID        int64      `json:"person"`
	OrganizationID  int64      `json:"organization"`
	RoleID          *int64     `json:"role"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	StartDateString *string    `json:"start_date_string"`
	EndDateString   *string    `json:"end_date_string"`
	ReferenceURL    *string    `json:"reference_url"`
	Comment         string     `json:"comment"`
	AwID            *int64     `json:"aw_id"`
}

func (a *Affiliation) Meta() *SyncMeta { return &a.SyncMeta }

func (a *Affiliation) ModelName() string { return "Affiliation" }

func (a *Affiliation) SyncFields() map[string]any {
	return map[string]any{
		"external_id":       a.ExternalID,
		"sync_uuid":         a.SyncUUID.String(),
		"person":            a.PersonID,
		"organization":      a.OrganizationID,
		"role":              a.RoleID,
		"start_date":        DateString(a.StartDate),
		"end_date":          DateString(a.EndDate),
		"start_date_string": a.StartDateString,
		"end_date_string":   a.EndDateString,
		"reference_url":     a.ReferenceURL,
		"comment":           a.Comment,
		"aw_id":             a.AwID,
	}
}
