package sync

import (
	"reflect"
	"testing"
)

func TestImportStatsToMapOmitsUntouchedModels(t *testing.T) {
	stats := NewImportStats()

	if got := stats.ToMap(); len(got) != 0 {
		t.Fatalf("empty collector should report nothing, got %v", got)
	}

	stats.TrackCreated("Person", 1, map[string]any{"first_name": "Maxi"})
	stats.TrackUpdated("Person", 2, map[string]FieldChange{})

	report := stats.ToMap()
	if len(report) != 1 {
		t.Fatalf("expected one model, got %v", report)
	}

	person, ok := report["Person"].(map[string]any)
	if !ok {
		t.Fatalf("expected map report, got %T", report["Person"])
	}
	created, ok := person["created"].([]any)
	if !ok || len(created) != 1 {
		t.Fatalf("expected one created entry, got %v", person["created"])
	}
	// An empty diff must not count as an update.
	updated, ok := person["updated"].([]any)
	if !ok || len(updated) != 0 {
		t.Errorf("expected no updated entries, got %v", person["updated"])
	}
}

func TestImportStatsMerge(t *testing.T) {
	a := NewImportStats()
	a.TrackCreated("Person", 1, map[string]any{"first_name": "Maxi"})

	b := NewImportStats()
	b.TrackCreated("Person", 2, map[string]any{"first_name": "Erika"})
	b.TrackSkipped("Affiliation", "missing person")
	b.TrackDeleted("Affiliation", 3, 4)

	a.Merge(b)

	report := a.ToMap()
	person := report["Person"].(map[string]any)
	if created := person["created"].([]any); len(created) != 2 {
		t.Errorf("expected 2 created persons, got %d", len(created))
	}

	affiliation := report["Affiliation"].(map[string]any)
	if skipped := affiliation["skipped"].([]any); len(skipped) != 1 {
		t.Errorf("expected 1 skipped entry, got %v", affiliation["skipped"])
	}
	if deleted := affiliation["deleted"].([]any); len(deleted) != 2 {
		t.Errorf("expected 2 deleted entries, got %v", affiliation["deleted"])
	}
}

func TestExportStatsFailedLinks(t *testing.T) {
	stats := NewExportStats()
	stats.TrackFailedLink("Affiliation", "field-1", 10, 20)

	report := stats.ToMap()
	affiliation := report["Affiliation"].(map[string]any)
	links := affiliation["failed_links"].([]any)
	if len(links) != 1 {
		t.Fatalf("expected one failed link, got %v", links)
	}

	want := map[string]any{
		"field_id":        "field-1",
		"record_id":       float64(10),
		"rel_instance_id": float64(20),
	}
	if !reflect.DeepEqual(links[0], want) {
		t.Errorf("unexpected failed link: %v", links[0])
	}
}

func TestNormalizeRoundTripsValues(t *testing.T) {
	fields := map[string]any{
		"aw_id": int64(5),
		"tags":  []string{},
		"title": (*string)(nil),
	}

	norm := Normalize(fields)

	if got := norm["aw_id"]; got != float64(5) {
		t.Errorf("expected float64 after round trip, got %T %v", got, got)
	}
	tags, ok := norm["tags"].([]any)
	if !ok || len(tags) != 0 {
		t.Errorf("expected empty list, got %v", norm["tags"])
	}
	if got := norm["title"]; got != nil {
		t.Errorf("expected nil title, got %v", got)
	}
}
