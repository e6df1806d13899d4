package models

import "strings"

// Person is a natural person tracked by the evidence collection.
type Person struct {
	ID int64 `json:"id"`
	SyncMeta

	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Title       *string  `json:"title"`
	AlsoKnownAs []string `json:"also_known_as"`
	WikidataID  *string  `json:"wikidata_id"`
	AwID        *int64   `json:"aw_id"`
	StatusID    *int64   `json:"status"`
}

func (p *Person) Meta() *SyncMeta { return &p.SyncMeta }

func (p *Person) ModelName() string { return "Person" }

// Name returns the display name used for actors and log messages.
func (p *Person) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Person) SyncFields() map[string]any {
	return map[string]any{
		"external_id":   p.ExternalID,
		"sync_uuid":     p.SyncUUID.String(),
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"title":         p.Title,
		"also_known_as": p.AlsoKnownAs,
		"wikidata_id":   p.WikidataID,
		"aw_id":         p.AwID,
		"status":        p.StatusID,
	}
}
