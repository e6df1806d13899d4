package db

import "database/sql"

// Schema is the complete database schema. Timestamps are stored as
// unix milliseconds so the synced_at = updated_at comparison survives
// round trips; date-valued columns are stored as ISO date strings.
const Schema = `
CREATE TABLE IF NOT EXISTS person_statuses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS organization_statuses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS institutional_levels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS evidence_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS attribution_problems (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS regions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE CHECK(length(name) > 0)
);

CREATE TABLE IF NOT EXISTS persons (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER UNIQUE,
	sync_uuid TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	title TEXT,
	also_known_as TEXT NOT NULL DEFAULT '[]',
	wikidata_id TEXT,
	aw_id INTEGER UNIQUE,
	status_id INTEGER REFERENCES person_statuses(id),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	synced_at INTEGER,
	last_synced_state TEXT
);

CREATE TABLE IF NOT EXISTS organizations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER UNIQUE,
	sync_uuid TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	also_known_as TEXT NOT NULL DEFAULT '[]',
	wikidata_id TEXT,
	aw_id INTEGER,
	status_id INTEGER REFERENCES organization_statuses(id),
	institutional_level_id INTEGER REFERENCES institutional_levels(id),
	special_regions TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	synced_at INTEGER,
	last_synced_state TEXT
);

CREATE TABLE IF NOT EXISTS organization_regions (
	organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	region_id INTEGER NOT NULL REFERENCES regions(id),
	PRIMARY KEY (organization_id, region_id)
);

CREATE TABLE IF NOT EXISTS roles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER UNIQUE,
	sync_uuid TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	synced_at INTEGER,
	last_synced_state TEXT
);

CREATE TABLE IF NOT EXISTS actors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER UNIQUE,
	person_id INTEGER UNIQUE REFERENCES persons(id) ON DELETE CASCADE,
	organization_id INTEGER UNIQUE REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	CHECK ((person_id IS NULL) != (organization_id IS NULL))
);

CREATE TABLE IF NOT EXISTS affiliations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER UNIQUE,
	sync_uuid TEXT NOT NULL UNIQUE,
	person_id INTEGER NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	role_id INTEGER REFERENCES roles(id),
	start_date TEXT,
	end_date TEXT,
	start_date_string TEXT,
	end_date_string TEXT,
	reference_url TEXT,
	comment TEXT NOT NULL DEFAULT '',
	aw_id INTEGER UNIQUE,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	synced_at INTEGER,
	last_synced_state TEXT
);

CREATE TABLE IF NOT EXISTS evidence (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER NOT NULL UNIQUE,
	citation TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	attribution_justification TEXT NOT NULL DEFAULT '',
	reference_info TEXT NOT NULL DEFAULT '',
	primary_source_info TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	evidence_type_id INTEGER REFERENCES evidence_types(id),
	legal_assessment INTEGER CHECK (legal_assessment BETWEEN 1 AND 5),
	event_date TEXT,
	publishing_date TEXT,
	documentation_date TEXT,
	reference_url TEXT,
	primary_source_url TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_collections (
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	collection_id INTEGER NOT NULL REFERENCES collections(id),
	PRIMARY KEY (evidence_id, collection_id)
);

CREATE TABLE IF NOT EXISTS evidence_attribution_problems (
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	problem_id INTEGER NOT NULL REFERENCES attribution_problems(id),
	PRIMARY KEY (evidence_id, problem_id)
);

CREATE TABLE IF NOT EXISTS evidence_originators (
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	actor_id INTEGER NOT NULL REFERENCES actors(id),
	PRIMARY KEY (evidence_id, actor_id)
);

CREATE TABLE IF NOT EXISTS evidence_related_actors (
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	actor_id INTEGER NOT NULL REFERENCES actors(id),
	PRIMARY KEY (evidence_id, actor_id)
);

CREATE TABLE IF NOT EXISTS evidence_attribution_evidence (
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	related_evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	PRIMARY KEY (evidence_id, related_evidence_id)
);

CREATE TABLE IF NOT EXISTS attachments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL UNIQUE,
	evidence_id INTEGER NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
	title TEXT NOT NULL DEFAULT '',
	mimetype TEXT,
	size INTEGER,
	width INTEGER,
	height INTEGER,
	file_path TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS parliaments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	aw_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	fraction_id INTEGER REFERENCES organizations(id),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS elections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	aw_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	parliament_id INTEGER NOT NULL REFERENCES parliaments(id),
	start_date TEXT,
	end_date TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS legislative_periods (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	aw_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	parliament_id INTEGER NOT NULL REFERENCES parliaments(id),
	election_id INTEGER UNIQUE REFERENCES elections(id),
	start_date TEXT,
	end_date TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS import_export_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	operation TEXT NOT NULL CHECK(operation IN ('import', 'export')),
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	success INTEGER NOT NULL DEFAULT 0,
	changes TEXT NOT NULL DEFAULT '{}',
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_persons_aw_id ON persons(aw_id);
CREATE INDEX IF NOT EXISTS idx_affiliations_person ON affiliations(person_id);
CREATE INDEX IF NOT EXISTS idx_affiliations_organization ON affiliations(organization_id);
CREATE INDEX IF NOT EXISTS idx_attachments_evidence ON attachments(evidence_id);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON import_export_runs(started_at);
`

// Init creates all tables and indexes if they do not exist yet.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
