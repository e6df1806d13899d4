package models

import "time"

// Evidence is a documented piece of evidence tying actors to an
// attribution claim. Evidence records are owned by the remote system
// and only imported, so they carry ImportMeta rather than SyncMeta.
type Evidence struct {
	ID int64 `json:"id"`
	ImportMeta

	Citation                 string     `json:"citation"`
	Description              string     `json:"description"`
	AttributionJustification string     `json:"attribution_justification"`
	ReferenceInfo            string     `json:"reference_info"`
	PrimarySourceInfo        string     `json:"primary_source_info"`
	Comment                  string     `json:"comment"`
	EvidenceTypeID           *int64     `json:"evidence_type"`
	LegalAssessment          *int64     `json:"legal_assessment"`
	EventDate                *time.Time `json:"event_date"`
	PublishingDate           *time.Time `json:"publishing_date"`
	DocumentationDate        *time.Time `json:"documentation_date"`
	ReferenceURL             *string    `json:"reference_url"`
	PrimarySourceURL         *string    `json:"primary_source_url"`

	CollectionIDs          []int64 `json:"collections"`
	AttributionProblemIDs  []int64 `json:"attribution_problems"`
	OriginatorIDs          []int64 `json:"originators"`
	RelatedActorIDs        []int64 `json:"related_actors"`
	AttributionEvidenceIDs []int64 `json:"attribution_evidences"`
}

func (e *Evidence) ModelName() string { return "Evidence" }

// Fields returns the snapshot used for import statistics and diffing.
func (e *Evidence) Fields() map[string]any {
	return map[string]any{
		"external_id":               e.ExternalID,
		"citation":                  e.Citation,
		"description":               e.Description,
		"attribution_justification": e.AttributionJustification,
		"reference_info":            e.ReferenceInfo,
		"primary_source_info":       e.PrimarySourceInfo,
		"comment":                   e.Comment,
		"evidence_type":             e.EvidenceTypeID,
		"legal_assessment":          e.LegalAssessment,
		"event_date":                DateString(e.EventDate),
		"publishing_date":           DateString(e.PublishingDate),
		"documentation_date":        DateString(e.DocumentationDate),
		"reference_url":             e.ReferenceURL,
		"primary_source_url":        e.PrimarySourceURL,
		"collections":               e.CollectionIDs,
		"attribution_problems":      e.AttributionProblemIDs,
		"originators":               e.OriginatorIDs,
		"related_actors":            e.RelatedActorIDs,
		"attribution_evidence":      e.AttributionEvidenceIDs,
	}
}

// Attachment is a file attached to an evidence record, mirrored from
// the remote attachment metadata. ExternalID is the remote file ID.
type Attachment struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	EvidenceID int64     `json:"evidence"`
	Title      string    `json:"title"`
	Mimetype   *string   `json:"mimetype"`
	Size       *int64    `json:"size"`
	Width      *int64    `json:"width"`
	Height     *int64    `json:"height"`
	FilePath   *string   `json:"file_path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Fields returns the snapshot used for import statistics.
func (a *Attachment) Fields() map[string]any {
	return map[string]any{
		"external_id": a.ExternalID,
		"evidence":    a.EvidenceID,
		"title":       a.Title,
		"mimetype":    a.Mimetype,
		"size":        a.Size,
		"width":       a.Width,
		"height":      a.Height,
	}
}
