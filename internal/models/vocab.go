package models

// VocabEntry is a row in one of the controlled vocabulary tables.
// Entries are resolved by name during import and referenced by ID.
type VocabEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Vocabulary table names. Used by the repository to address the
// individual lookup tables through one code path.
const (
	VocabPersonStatus       = "person_statuses"
	VocabOrganizationStatus = "organization_statuses"
	VocabInstitutionalLevel = "institutional_levels"
	VocabEvidenceType       = "evidence_types"
	VocabCollection         = "collections"
	VocabAttributionProblem = "attribution_problems"
	VocabRegion             = "regions"
)
