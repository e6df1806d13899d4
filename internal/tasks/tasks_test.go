package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/models"
)

func setupRunner(t *testing.T, apiURL string) (*db.Repository, *Runner) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := db.Init(sqlDB); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	repo := db.NewRepository(sqlDB)
	t.Cleanup(func() {
		repo.Close()
		sqlDB.Close()
	})

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Abgeordnetenwatch.APIURL = apiURL
	return repo, NewRunner(repo, cfg)
}

// emptyAwAPI answers every abgeordnetenwatch request with zero rows.
func emptyAwAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]any{"result": map[string]any{"total": 0, "results_per_page": 500}},
			"data": []any{},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImportAbgeordnetenwatchRecordsSuccessfulRun(t *testing.T) {
	srv := emptyAwAPI(t)
	repo, runner := setupRunner(t, srv.URL)

	run, err := runner.ImportAbgeordnetenwatch(context.Background(), true)
	if err != nil {
		t.Fatalf("ImportAbgeordnetenwatch failed: %v", err)
	}

	got, err := repo.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if !got.Success {
		t.Error("run must be recorded as successful")
	}
	if got.FinishedAt == nil {
		t.Error("run must be finished")
	}
	if got.Operation != models.OperationImport || got.Source != models.EndpointAbgeordnetenwatch {
		t.Errorf("run header = %s %s -> %s", got.Operation, got.Source, got.Target)
	}
	if len(got.Changes) != 0 {
		t.Errorf("an empty import must record empty changes, got %v", got.Changes)
	}
	if got.Notes != "" {
		t.Errorf("notes = %q, want empty", got.Notes)
	}
}

func TestImportAbgeordnetenwatchRecordsFailedRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	repo, runner := setupRunner(t, srv.URL)

	run, err := runner.ImportAbgeordnetenwatch(context.Background(), true)
	if err == nil {
		t.Fatal("the pipeline error must be passed through")
	}
	if run == nil {
		t.Fatal("the failed run must still be returned")
	}

	got, err2 := repo.GetRun(run.ID)
	if err2 != nil {
		t.Fatalf("GetRun failed: %v", err2)
	}
	if got.Success {
		t.Error("run must be recorded as failed")
	}
	if got.FinishedAt == nil {
		t.Error("a failed run must still be finished")
	}
	if len(got.Changes) != 0 {
		t.Errorf("a failed run must keep empty changes, got %v", got.Changes)
	}
	if !strings.Contains(got.Notes, "backend down") {
		t.Errorf("notes = %q, want the pipeline error", got.Notes)
	}
}

func TestImportAbgeordnetenwatchRequiresAPIURL(t *testing.T) {
	repo, runner := setupRunner(t, "")

	_, err := runner.ImportAbgeordnetenwatch(context.Background(), true)
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if !strings.Contains(err.Error(), "abgeordnetenwatch API URL is not configured") {
		t.Errorf("error = %q", err)
	}

	runs, err := repo.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("a configuration error must not record a run, got %d", len(runs))
	}
}
