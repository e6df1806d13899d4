package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if got, want := cfg.NullLabel, "Keine Angabe"; got != want {
		t.Errorf("NullLabel = %q, want %q", got, want)
	}
	if len(cfg.SpecialRegions) != 1 || cfg.SpecialRegions[0] != "Ausland" {
		t.Errorf("SpecialRegions = %v, want [Ausland]", cfg.SpecialRegions)
	}
	if got, want := cfg.Abgeordnetenwatch.APIURL, "https://www.abgeordnetenwatch.de/api/v2"; got != want {
		t.Errorf("Abgeordnetenwatch.APIURL = %q, want %q", got, want)
	}
	if got := cfg.Abgeordnetenwatch.PreviousPeriodMap[116]; got != 55 {
		t.Errorf("PreviousPeriodMap[116] = %d, want 55", got)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir is empty")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
log_level: debug
permissive: true
nocodb:
  api_url: https://nocodb.example.org
  api_token: secret
  actor_table: tbl-actors
abgeordnetenwatch:
  mandate_role_uuid: 11111111-1111-4111-8111-111111111111
  fractions: ["26", "27"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if !cfg.Permissive {
		t.Error("Permissive = false, want true")
	}
	if cfg.NocoDB.APIToken != "secret" {
		t.Errorf("NocoDB.APIToken = %q, want %q", cfg.NocoDB.APIToken, "secret")
	}
	if cfg.NocoDB.ActorTable != "tbl-actors" {
		t.Errorf("NocoDB.ActorTable = %q, want %q", cfg.NocoDB.ActorTable, "tbl-actors")
	}
	// Unset file keys keep their defaults.
	if got, want := cfg.Abgeordnetenwatch.APIURL, "https://www.abgeordnetenwatch.de/api/v2"; got != want {
		t.Errorf("Abgeordnetenwatch.APIURL = %q, want %q", got, want)
	}
	if got := cfg.Abgeordnetenwatch.Fractions; len(got) != 2 || got[0] != "26" || got[1] != "27" {
		t.Errorf("Fractions = %v, want [26 27]", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %q, want read failure", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("nocodb: ["), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() succeeded for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("error = %q, want parse failure", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EVIDENCESYNC_DATA_DIR", dir)
	t.Setenv("EVIDENCESYNC_LOG_LEVEL", "warn")
	t.Setenv("NOCODB_API_URL", "https://env.example.org")
	t.Setenv("NOCODB_API_TOKEN", "env-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.NocoDB.APIURL != "https://env.example.org" {
		t.Errorf("NocoDB.APIURL = %q, want env override", cfg.NocoDB.APIURL)
	}
	if cfg.NocoDB.APIToken != "env-token" {
		t.Errorf("NocoDB.APIToken = %q, want env override", cfg.NocoDB.APIToken)
	}
}

func TestValidateResolvesDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "relative/path"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Errorf("DataDir = %q, want absolute path", cfg.DataDir)
	}
}

func TestValidateEmptyDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""

	err := cfg.Validate()
	if err == nil || err.Error() != "data directory cannot be empty" {
		t.Errorf("Validate() error = %v, want empty data directory error", err)
	}
}

func TestValidateNocoDB(t *testing.T) {
	cfg := Default()
	cfg.NocoDB = NocoDBConfig{
		APIURL:           "https://nocodb.example.org",
		APIToken:         "secret",
		ActorTable:       "tbl-actors",
		AffiliationTable: "tbl-affiliations",
		EvidenceTable:    "tbl-evidence",
		RoleTable:        "tbl-roles",
	}
	if err := cfg.ValidateNocoDB(); err != nil {
		t.Fatalf("ValidateNocoDB() error: %v", err)
	}

	cfg.NocoDB.APIToken = ""
	err := cfg.ValidateNocoDB()
	if err == nil || err.Error() != "NocoDB API token is not configured" {
		t.Errorf("ValidateNocoDB() error = %v, want missing token error", err)
	}

	cfg.NocoDB.APIToken = "secret"
	cfg.NocoDB.EvidenceTable = ""
	err = cfg.ValidateNocoDB()
	if err == nil || err.Error() != "NocoDB evidence table is not configured" {
		t.Errorf("ValidateNocoDB() error = %v, want missing table error", err)
	}
}

func TestValidateAbgeordnetenwatch(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateAbgeordnetenwatch(); err != nil {
		t.Fatalf("ValidateAbgeordnetenwatch() error: %v", err)
	}

	cfg.Abgeordnetenwatch.APIURL = ""
	err := cfg.ValidateAbgeordnetenwatch()
	if err == nil || err.Error() != "abgeordnetenwatch API URL is not configured" {
		t.Errorf("ValidateAbgeordnetenwatch() error = %v, want missing URL error", err)
	}
}

func TestAttachmentDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/evidencesync"

	if got, want := cfg.AttachmentDir(), filepath.Join("/var/lib/evidencesync", "attachments"); got != want {
		t.Errorf("AttachmentDir() = %q, want %q", got, want)
	}
}
