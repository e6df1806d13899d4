// Package sync provides the shared machinery of the import and export
// pipelines: change statistics, field diffing and value comparison.
package sync

import "encoding/json"

// FieldChange records one field's value before and after an update.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// CreatedEntry records a created instance with its full field snapshot.
type CreatedEntry struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}

// UpdatedEntry records an updated instance with its field-level diff.
type UpdatedEntry struct {
	ID   int64                  `json:"id"`
	Diff map[string]FieldChange `json:"diff"`
}

// FailedLink records one relation-link call that failed during export.
type FailedLink struct {
	FieldID       string `json:"field_id"`
	RecordID      int64  `json:"record_id"`
	RelInstanceID int64  `json:"rel_instance_id"`
}

type importModelStats struct {
	Created []CreatedEntry `json:"created"`
	Updated []UpdatedEntry `json:"updated"`
	Skipped []string       `json:"skipped"`
	Deleted []int64        `json:"deleted"`
}

func (m *importModelStats) empty() bool {
	return len(m.Created) == 0 && len(m.Updated) == 0 &&
		len(m.Skipped) == 0 && len(m.Deleted) == 0
}

// ImportStats accumulates per-model change statistics for one import
// run. Models without any activity are omitted from the report.
type ImportStats struct {
	models map[string]*importModelStats
}

// NewImportStats creates an empty collector.
func NewImportStats() *ImportStats {
	return &ImportStats{models: make(map[string]*importModelStats)}
}

func (s *ImportStats) forModel(model string) *importModelStats {
	m, ok := s.models[model]
	if !ok {
		m = &importModelStats{
			Created: []CreatedEntry{},
			Updated: []UpdatedEntry{},
			Skipped: []string{},
			Deleted: []int64{},
		}
		s.models[model] = m
	}
	return m
}

// TrackCreated records a created instance with its field snapshot.
func (s *ImportStats) TrackCreated(model string, id int64, fields map[string]any) {
	m := s.forModel(model)
	m.Created = append(m.Created, CreatedEntry{ID: id, Fields: Normalize(fields)})
}

// TrackUpdated records an updated instance. Empty diffs are ignored.
func (s *ImportStats) TrackUpdated(model string, id int64, diff map[string]FieldChange) {
	if len(diff) == 0 {
		return
	}
	m := s.forModel(model)
	m.Updated = append(m.Updated, UpdatedEntry{ID: id, Diff: diff})
}

// TrackSkipped records a skipped operation with its reason.
func (s *ImportStats) TrackSkipped(model, reason string) {
	m := s.forModel(model)
	m.Skipped = append(m.Skipped, reason)
}

// TrackDeleted records deleted instances by local ID.
func (s *ImportStats) TrackDeleted(model string, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	m := s.forModel(model)
	m.Deleted = append(m.Deleted, ids...)
}

// Merge concatenates another collector's per-model lists into this
// one, without deduplication.
func (s *ImportStats) Merge(other *ImportStats) {
	for model, om := range other.models {
		m := s.forModel(model)
		m.Created = append(m.Created, om.Created...)
		m.Updated = append(m.Updated, om.Updated...)
		m.Skipped = append(m.Skipped, om.Skipped...)
		m.Deleted = append(m.Deleted, om.Deleted...)
	}
}

// ToMap returns the serializable report, omitting untouched models.
func (s *ImportStats) ToMap() map[string]any {
	out := map[string]any{}
	for model, m := range s.models {
		if m.empty() {
			continue
		}
		out[model] = roundTrip(m)
	}
	return out
}

type exportModelStats struct {
	Created     []CreatedEntry `json:"created"`
	Updated     []UpdatedEntry `json:"updated"`
	FailedLinks []FailedLink   `json:"failed_links"`
}

func (m *exportModelStats) empty() bool {
	return len(m.Created) == 0 && len(m.Updated) == 0 && len(m.FailedLinks) == 0
}

// ExportStats accumulates per-model change statistics for one export
// run, including failed relation-link calls.
type ExportStats struct {
	models map[string]*exportModelStats
}

// NewExportStats creates an empty collector.
func NewExportStats() *ExportStats {
	return &ExportStats{models: make(map[string]*exportModelStats)}
}

func (s *ExportStats) forModel(model string) *exportModelStats {
	m, ok := s.models[model]
	if !ok {
		m = &exportModelStats{
			Created:     []CreatedEntry{},
			Updated:     []UpdatedEntry{},
			FailedLinks: []FailedLink{},
		}
		s.models[model] = m
	}
	return m
}

// TrackCreated records a created instance with its field snapshot.
func (s *ExportStats) TrackCreated(model string, id int64, fields map[string]any) {
	m := s.forModel(model)
	m.Created = append(m.Created, CreatedEntry{ID: id, Fields: Normalize(fields)})
}

// TrackUpdated records an updated instance. Empty diffs are ignored.
func (s *ExportStats) TrackUpdated(model string, id int64, diff map[string]FieldChange) {
	if len(diff) == 0 {
		return
	}
	m := s.forModel(model)
	m.Updated = append(m.Updated, UpdatedEntry{ID: id, Diff: diff})
}

// TrackFailedLink records one failed relation-link call.
func (s *ExportStats) TrackFailedLink(model, fieldID string, recordID, relInstanceID int64) {
	m := s.forModel(model)
	m.FailedLinks = append(m.FailedLinks, FailedLink{
		FieldID:       fieldID,
		RecordID:      recordID,
		RelInstanceID: relInstanceID,
	})
}

// Merge concatenates another collector's per-model lists into this one.
func (s *ExportStats) Merge(other *ExportStats) {
	for model, om := range other.models {
		m := s.forModel(model)
		m.Created = append(m.Created, om.Created...)
		m.Updated = append(m.Updated, om.Updated...)
		m.FailedLinks = append(m.FailedLinks, om.FailedLinks...)
	}
}

// ToMap returns the serializable report, omitting untouched models.
func (s *ExportStats) ToMap() map[string]any {
	out := map[string]any{}
	for model, m := range s.models {
		if m.empty() {
			continue
		}
		out[model] = roundTrip(m)
	}
	return out
}

// Normalize converts a field snapshot into plain JSON-compatible
// values so snapshots loaded from storage compare equal to freshly
// built ones.
func Normalize(fields map[string]any) map[string]any {
	out := roundTrip(fields)
	if m, ok := out.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func roundTrip(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// Diff compares two field snapshots. Every field present in the new
// snapshot that differs from the old value is recorded with both
// values; fields absent from the new snapshot are ignored.
func Diff(oldFields, newFields map[string]any) map[string]FieldChange {
	normOld := Normalize(oldFields)
	normNew := Normalize(newFields)

	diff := map[string]FieldChange{}
	for field, newValue := range normNew {
		oldValue, ok := normOld[field]
		if ok && Equals(oldValue, newValue) {
			continue
		}
		if !ok && newValue == nil {
			continue
		}
		diff[field] = FieldChange{Old: oldValue, New: newValue}
	}
	return diff
}
