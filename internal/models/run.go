package models

import "time"

// Run operations and endpoints for ImportExportRun rows.
const (
	OperationImport = "import"
	OperationExport = "export"

	EndpointLocal             = "local"
	EndpointNocoDB            = "nocodb"
	EndpointAbgeordnetenwatch = "abgeordnetenwatch"
)

// ImportExportRun is the audit record written for every import or
// export task. Changes holds the per-model statistics of the run and
// Notes the error message when the run failed.
type ImportExportRun struct {
	ID         int64          `json:"id"`
	Operation  string         `json:"operation"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at"`
	Success    bool           `json:"success"`
	Changes    map[string]any `json:"changes"`
	Notes      string         `json:"notes"`
}
