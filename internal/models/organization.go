package models

// Organization is a legal entity or group tracked by the evidence
// collection. RegionIDs and SpecialRegions mirror the two-part region
// field of the remote table: known regions become references into the
// region vocabulary, configured special values are kept verbatim.
type Organization struct {
	ID int64 `json:"id"`
	SyncMeta

	Name                 string   `json:"name"`
	AlsoKnownAs          []string `json:"also_known_as"`
	WikidataID           *string  `json:"wikidata_id"`
	AwID                 *int64   `json:"aw_id"`
	StatusID             *int64   `json:"status"`
	InstitutionalLevelID *int64   `json:"institutional_level"`
	RegionIDs            []int64  `json:"regions"`
	SpecialRegions       []string `json:"special_regions"`
}

func (o *Organization) Meta() *SyncMeta { return &o.SyncMeta }

func (o *Organization) ModelName() string { return "Organization" }

func (o *Organization) SyncFields() map[string]any {
	return map[string]any{
		"external_id":         o.ExternalID,
		"sync_uuid":           o.SyncUUID.String(),
		"name":                o.Name,
		"also_known_as":       o.AlsoKnownAs,
		"wikidata_id":         o.WikidataID,
		"aw_id":               o.AwID,
		"status":              o.StatusID,
		"institutional_level": o.InstitutionalLevelID,
		"regions":             o.RegionIDs,
		"special_regions":     o.SpecialRegions,
	}
}
