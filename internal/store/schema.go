package store

// schemaVersion is the current schema version. Increment when adding migrations.
const schemaVersion = 2

// migrations maps version numbers to SQL statements that bring the schema
// from (version-1) to (version). Version 1 is the initial schema.
var migrations = map[int]string{
	1: `
-- One row per normalized coding session.
CREATE TABLE IF NOT EXISTS sessions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id         TEXT    NOT NULL UNIQUE,
	source             TEXT    NOT NULL,
	file_path          TEXT    NOT NULL,
	project_path       TEXT    NOT NULL DEFAULT '',
	project_name       TEXT    NOT NULL DEFAULT '',
	branch             TEXT    NOT NULL DEFAULT '',
	started_at         TEXT    NOT NULL DEFAULT '',
	ended_at           TEXT    NOT NULL DEFAULT '',
	date               TEXT    NOT NULL DEFAULT '',
	user_messages      INTEGER NOT NULL DEFAULT 0,
	assistant_messages INTEGER NOT NULL DEFAULT 0,
	input_tokens       INTEGER NOT NULL DEFAULT 0,
	output_tokens      INTEGER NOT NULL DEFAULT 0,
	tool_calls         TEXT    NOT NULL DEFAULT '{}',
	changed_files      TEXT    NOT NULL DEFAULT '[]',
	work_type          TEXT    NOT NULL DEFAULT '',
	scope              TEXT    NOT NULL DEFAULT '',
	first_prompt       TEXT    NOT NULL DEFAULT '',
	summary            TEXT    NOT NULL DEFAULT '',
	updated_at         TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_path);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source);

-- Ledger of transcript files already ingested, keyed by path.
-- A changed content hash makes the file eligible for reprocessing.
CREATE TABLE IF NOT EXISTS processed_files (
	file_path    TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	processed_at TEXT NOT NULL
);

-- Key-value store for pipeline metadata (schema version, cursors, etc).
CREATE TABLE IF NOT EXISTS ingest_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`,

	2: `
-- Per-run ingest reports for the status command.
CREATE TABLE IF NOT EXISTS ingest_runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT    NOT NULL UNIQUE,
	started_at TEXT    NOT NULL,
	processed  INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`,
}
