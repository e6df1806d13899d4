// Package config holds the typed configuration for all sync pipelines.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NocoDBConfig configures the NocoDB import and export pipelines.
// Tables and views are remote identifiers; persons and organizations
// share one actor table split by two views.
type NocoDBConfig struct {
	APIURL   string `yaml:"api_url"`
	APIToken string `yaml:"api_token"`

	ActorTable       string `yaml:"actor_table"`
	AffiliationTable string `yaml:"affiliation_table"`
	EvidenceTable    string `yaml:"evidence_table"`
	RoleTable        string `yaml:"role_table"`

	PersonView       string `yaml:"person_view"`
	OrganizationView string `yaml:"organization_view"`

	// Link field IDs for the affiliation relations pushed via
	// separate link calls.
	AffiliationPersonFieldID       string `yaml:"affiliation_person_field_id"`
	AffiliationOrganizationFieldID string `yaml:"affiliation_organization_field_id"`
	AffiliationRoleFieldID         string `yaml:"affiliation_role_field_id"`
}

// AbgeordnetenwatchConfig configures the one-way import from the
// abgeordnetenwatch.de API.
type AbgeordnetenwatchConfig struct {
	APIURL string `yaml:"api_url"`

	MandateRoleUUID   string `yaml:"mandate_role_uuid"`
	CandidateRoleUUID string `yaml:"candidate_role_uuid"`

	PartyID   int64    `yaml:"party_id"`
	Fractions []string `yaml:"fractions"`

	// Corrections for known-bad previous-period references in the
	// remote data, keyed by period ID.
	PreviousPeriodMap map[int64]int64 `yaml:"previous_period_map"`
}

// Config is the root configuration.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	// Permissive downgrades recoverable import errors to logged
	// skips instead of aborting the run.
	Permissive bool `yaml:"permissive"`

	// Region handling for organizations.
	SpecialRegions []string `yaml:"special_regions"`
	NullLabel      string   `yaml:"null_label"`

	NocoDB            NocoDBConfig            `yaml:"nocodb"`
	Abgeordnetenwatch AbgeordnetenwatchConfig `yaml:"abgeordnetenwatch"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		LogLevel:       "info",
		SpecialRegions: []string{"Ausland"},
		NullLabel:      "Keine Angabe",
		Abgeordnetenwatch: AbgeordnetenwatchConfig{
			APIURL: "https://www.abgeordnetenwatch.de/api/v2",
			// Fix previous_period for "Hessen 2018 - 2024".
			PreviousPeriodMap: map[int64]int64{116: 55},
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("EVIDENCESYNC_DATA_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".evidencesync"
	}
	return filepath.Join(homeDir, ".evidencesync")
}

// Load reads the configuration file at path (if non-empty) on top of
// the defaults, then applies environment overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("EVIDENCESYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("EVIDENCESYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NOCODB_API_URL"); v != "" {
		cfg.NocoDB.APIURL = v
	}
	if v := os.Getenv("NOCODB_API_TOKEN"); v != "" {
		cfg.NocoDB.APIToken = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the base configuration. Pipeline-specific settings
// are validated by ValidateNocoDB and ValidateAbgeordnetenwatch when
// the respective pipeline runs.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	absPath, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	c.DataDir = absPath

	return nil
}

// ValidateNocoDB checks the settings required by the NocoDB pipelines.
func (c *Config) ValidateNocoDB() error {
	if c.NocoDB.APIURL == "" {
		return fmt.Errorf("NocoDB API URL is not configured")
	}
	if c.NocoDB.APIToken == "" {
		return fmt.Errorf("NocoDB API token is not configured")
	}
	for name, table := range map[string]string{
		"actor":       c.NocoDB.ActorTable,
		"affiliation": c.NocoDB.AffiliationTable,
		"evidence":    c.NocoDB.EvidenceTable,
		"role":        c.NocoDB.RoleTable,
	} {
		if table == "" {
			return fmt.Errorf("NocoDB %s table is not configured", name)
		}
	}
	return nil
}

// ValidateAbgeordnetenwatch checks the settings required by the
// abgeordnetenwatch import. Role UUIDs, party ID and fractions are
// checked by the importers that need them.
func (c *Config) ValidateAbgeordnetenwatch() error {
	if c.Abgeordnetenwatch.APIURL == "" {
		return fmt.Errorf("abgeordnetenwatch API URL is not configured")
	}
	return nil
}

// AttachmentDir is the directory downloaded attachment files go to.
func (c *Config) AttachmentDir() string {
	return filepath.Join(c.DataDir, "attachments")
}
